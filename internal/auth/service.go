package auth

import (
	"context"
	"strings"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/store"
)

// Service handles registration, login, and profile updates.
type Service struct {
	store  store.Store
	issuer *TokenIssuer
}

// NewService creates an auth service.
func NewService(s store.Store, issuer *TokenIssuer) *Service {
	return &Service{store: s, issuer: issuer}
}

// Register creates a new regular-role account. Email must be unique;
// registration never grants the manager role.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("email", "must be a valid email address")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password", "must be at least 8 characters")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, apperr.Validation("display_name", "must not be empty")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         model.RoleRegular,
		Prefs:        model.NotifyPrefs{InApp: true, Email: true},
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.store.GetUserByEmail(ctx, email)
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", nil, apperr.Unauthorized("invalid credentials")
	}

	token, err := s.issuer.Issue(u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ProfilePatch holds the mutable profile fields of a user.
type ProfilePatch struct {
	DisplayName *string
	Prefs       *model.NotifyPrefs
}

// UpdateProfile applies a partial profile update.
func (s *Service) UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*model.User, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, apperr.Validation("display_name", "must not be empty")
		}
		u.DisplayName = name
	}
	if patch.Prefs != nil {
		u.Prefs = *patch.Prefs
	}

	if err := s.store.UpdateUser(ctx, *u); err != nil {
		return nil, err
	}
	return s.store.GetUserByID(ctx, userID)
}

// ChangePassword replaces the user's password after checking the
// current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(u.PasswordHash, current) {
		return apperr.Unauthorized("current password is incorrect")
	}
	if len(next) < 8 {
		return apperr.Validation("password", "must be at least 8 characters")
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.store.UpdateUser(ctx, *u)
}
