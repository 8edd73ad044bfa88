package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedUser creates a regular-role user with a unique email and in-app
// notifications enabled.
func SeedUser(t *testing.T, s store.Store, displayName string) model.User {
	t.Helper()
	return seedUser(t, s, displayName, model.RoleRegular)
}

// SeedManager creates a manager-role user.
func SeedManager(t *testing.T, s store.Store, displayName string) model.User {
	t.Helper()
	return seedUser(t, s, displayName, model.RoleManager)
}

func seedUser(t *testing.T, s store.Store, displayName, role string) model.User {
	t.Helper()

	id := uuid.New().String()
	u := model.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		DisplayName:  displayName,
		Role:         role,
		Prefs:        model.NotifyPrefs{InApp: true, Email: true},
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", displayName, err)
	}

	seeded, err := s.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("loading seeded user %s: %v", displayName, err)
	}
	return *seeded
}
