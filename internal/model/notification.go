package model

import "time"

// NotificationType represents the kind of notification.
type NotificationType string

const (
	NotificationAssignment   NotificationType = "assignment"
	NotificationStatusUpdate NotificationType = "status_update"
	NotificationNewComment   NotificationType = "new_comment"
	NotificationReminder     NotificationType = "reminder"
)

// Notification is an alert surfaced to a single recipient about
// activity on a task. ReferenceID is a task id for assignment, status
// and reminder notifications and a comment id for new-comment ones.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id"`

	// Type identifies what happened (use the Notification* constants).
	Type NotificationType `json:"type"`

	// ReferenceID points at the entity the Type refers to.
	ReferenceID string `json:"reference_id"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// IsRead indicates whether the recipient has seen this notification.
	IsRead bool `json:"is_read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
