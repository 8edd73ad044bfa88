package model

import "time"

// User roles. Manager is a superset of regular permissions.
const (
	RoleRegular = "regular"
	RoleManager = "manager"
)

// User is an account holder. The password hash never serializes.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	DisplayName  string      `json:"display_name"`
	Role         string      `json:"role"`
	Prefs        NotifyPrefs `json:"notification_preferences"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NotifyPrefs controls which notification channels a user receives.
// Email delivery itself is handled by an external collaborator; the
// flag is stored and exposed only.
type NotifyPrefs struct {
	InApp bool `json:"in_app"`
	Email bool `json:"email"`
}

// IsManager reports whether the user holds the manager role.
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}
