package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
)

// CreateUser inserts a new user. Generates a UUID if ID is empty.
// Returns a ConflictError if the email is already registered.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	if u.Role == "" {
		u.Role = model.RoleRegular
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, password_hash, display_name, role,
			notify_in_app, notify_email, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.Role,
		boolToInt(u.Prefs.InApp), boolToInt(u.Prefs.Email),
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperr.Conflict("email already registered")
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a single user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM users WHERE email = ?", email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user", email)
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &u, nil
}

// UpdateUser updates a user's mutable fields by ID.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u model.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			display_name = ?, password_hash = ?, role = ?,
			notify_in_app = ?, notify_email = ?, updated_at = ?
		WHERE id = ?`,
		u.DisplayName, u.PasswordHash, u.Role,
		boolToInt(u.Prefs.InApp), boolToInt(u.Prefs.Email),
		time.Now().UTC(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", u.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("user", u.ID)
	}
	return nil
}

// scanUser scans a user row from a sqlx row source.
func scanUser(row interface{ Scan(dest ...interface{}) error }) (model.User, error) {
	var (
		u     model.User
		inApp int
		email int
	)

	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role,
		&inApp, &email, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	u.Prefs.InApp = inApp != 0
	u.Prefs.Email = email != 0
	return u, nil
}
