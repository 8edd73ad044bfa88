package model

import "time"

// Task status values. Transitions between any two values are allowed;
// there is no workflow gating.
const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Task priority values.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s string) bool {
	return s == StatusToDo || s == StatusInProgress || s == StatusDone
}

// ValidPriority reports whether p is one of the known priority values.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a unit of work owned by its creator and shared with assignees.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`

	// Title is the human-readable summary. Never empty.
	Title string `json:"title"`

	// Description is the optional full body text.
	Description string `json:"description"`

	// Status is one of the Status* constants.
	Status string `json:"status"`

	// Priority is one of the Priority* constants.
	Priority string `json:"priority"`

	// Tags is the deduplicated set of free-text labels.
	Tags []string `json:"tags"`

	// DueDate is the optional deadline.
	DueDate *time.Time `json:"due_date,omitempty"`

	// CreatorID references the user who created the task. Set once,
	// never changed.
	CreatorID string `json:"creator_id"`

	// Assignees holds the hydrated assignment records for this task.
	Assignees []Assignment `json:"assignees"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assignment links a user to a task as a collaborator. At most one
// assignment exists per (task, user) pair.
type Assignment struct {
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	AssignedAt  time.Time `json:"assigned_at"`
}

// AssigneeIDs returns the user ids of the task's current assignees.
func (t *Task) AssigneeIDs() []string {
	ids := make([]string, 0, len(t.Assignees))
	for _, a := range t.Assignees {
		ids = append(ids, a.UserID)
	}
	return ids
}

// IsAssigned reports whether userID is currently assigned to the task.
func (t *Task) IsAssigned(userID string) bool {
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
