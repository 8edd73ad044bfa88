// Package notify derives notification records from domain events and
// delivers them: one persisted row per affected user, followed by a push
// to that user's room. Persistence happens before the push is attempted,
// so a client that misses the push still finds the notification on its
// next fetch.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/store"
)

// Broadcaster pushes an event payload to every connection subscribed to
// a room. Implementations must not block dispatch.
type Broadcaster interface {
	Broadcast(room, event string, payload interface{})
}

// Push event names emitted by the server.
const (
	EventNotificationCreated = "notification_created"
	EventTaskUpdated         = "task_updated"
	EventCommentAdded        = "comment_added"
)

// UserRoom names the room carrying all of a user's notifications.
func UserRoom(userID string) string {
	return "user:" + userID
}

// TaskRoom names the room carrying mutation broadcasts for one task.
func TaskRoom(taskID string) string {
	return "task:" + taskID
}

// Fanout turns domain events into persisted notifications and push
// events. Delivery is at-least-once per affected user per event; no
// deduplication of near-simultaneous identical events is attempted.
type Fanout struct {
	store       store.Store
	broadcaster Broadcaster
}

// New creates a Fanout backed by the given store and broadcaster.
func New(s store.Store, b Broadcaster) *Fanout {
	return &Fanout{store: s, broadcaster: b}
}

// Dispatch fans an event out to its recipients, excluding the actor.
// Failures are logged and never propagate: the triggering mutation has
// already committed, and a missed push is recovered by the client's own
// re-fetch.
func (f *Fanout) Dispatch(ctx context.Context, ev Event) {
	seen := make(map[string]bool, len(ev.Recipients))
	for _, userID := range ev.Recipients {
		if userID == ev.ActorID || seen[userID] {
			continue
		}
		seen[userID] = true

		u, err := f.store.GetUserByID(ctx, userID)
		if err != nil {
			log.Printf("notify: loading recipient %s: %v", userID, err)
			continue
		}
		if !u.Prefs.InApp {
			continue
		}

		n := model.Notification{
			ID:          uuid.New().String(),
			UserID:      userID,
			Type:        ev.Type,
			ReferenceID: ev.Ref.ID,
			Message:     ev.Message,
			CreatedAt:   time.Now().UTC(),
		}
		if err := f.store.CreateNotification(ctx, n); err != nil {
			log.Printf("notify: persisting notification for %s: %v", userID, err)
			continue
		}

		// Persisted first: only now is the push attempted.
		f.broadcaster.Broadcast(UserRoom(userID), EventNotificationCreated, n)
	}
}

// List returns all of a user's notifications, newest first.
func (f *Fanout) List(ctx context.Context, userID string) ([]model.Notification, error) {
	return f.store.GetNotificationsForUser(ctx, userID)
}

// MarkRead flips a notification to read. Idempotent: marking an
// already-read notification is a no-op.
func (f *Fanout) MarkRead(ctx context.Context, id string) error {
	return f.store.MarkNotificationRead(ctx, id)
}

// MarkAllRead flips all of a user's unread notifications and returns
// the number affected.
func (f *Fanout) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return f.store.MarkAllNotificationsRead(ctx, userID)
}
