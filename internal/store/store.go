package store

import (
	"context"
	"time"

	"github.com/taskboard/taskboard/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task list
// queries. Filter dimensions are conjunctive; values within a dimension
// match with OR semantics.
type TaskFilter struct {
	Statuses    []string   // any of the Status* constants
	Priorities  []string   // any of the Priority* constants
	Tags        []string   // a task matches if it carries ANY listed tag
	AssigneeIDs []string   // a task matches if ANY listed user is assigned
	DueFrom     *time.Time // inclusive lower bound
	DueTo       *time.Time // inclusive upper bound
	Query       *string    // case-insensitive substring over title + description
	SortBy      string     // "due_date", "priority", "created_at"
	SortDesc    bool
	Limit       int
	Offset      int
}

// TaskPatch describes a partial task update. Nil pointer fields are left
// untouched. Due date, tags, and assignees carry explicit set flags so a
// patch can clear them.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	Tags         []string
	TagsSet      bool
	DueDate      *time.Time
	DueDateSet   bool
	Assignees    []string
	AssigneesSet bool

	// Reminders are appended alongside the update, snapshot by the
	// caller from the patch's due date.
	Reminders []model.Reminder
}

// TaskUpdateResult reports what an applied patch actually changed, so
// the caller can derive notifications from it.
type TaskUpdateResult struct {
	Task             *model.Task
	AddedAssignees   []string
	RemovedAssignees []string
	StatusChanged    bool
}

// StatusCount pairs a status value with the number of tasks holding it.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PriorityCount pairs a priority value with the number of tasks holding it.
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// AssigneeLoad reports the number of not-done tasks assigned to a user.
type AssigneeLoad struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	OpenTasks   int    `json:"open_tasks"`
}

// TeamSummary is the manager dashboard aggregate.
type TeamSummary struct {
	TotalTasks   int             `json:"total_tasks"`
	ByStatus     []StatusCount   `json:"by_status"`
	ByPriority   []PriorityCount `json:"by_priority"`
	OverdueTasks int             `json:"overdue_tasks"`
	AssigneeLoad []AssigneeLoad  `json:"assignee_load"`
}

// Store defines the persistence interface for users, tasks, comments,
// notifications, and reminders. Every mutating method applies its reads
// and writes as a single transaction: no concurrent reader observes a
// partially applied mutation.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, u model.User) error

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task, assignees []string, reminders []model.Reminder) (*model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	ApplyTaskUpdate(ctx context.Context, id string, patch TaskPatch) (*TaskUpdateResult, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	CountTasks(ctx context.Context, filter TaskFilter) (int, error)

	// === Comments ===

	CreateComment(ctx context.Context, c model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	GetCommentsForTask(ctx context.Context, taskID string) ([]model.Comment, error)
	UpdateCommentBody(ctx context.Context, id, body string, updatedAt time.Time) error
	DeleteComment(ctx context.Context, id string) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error)
	GetNotificationByID(ctx context.Context, id string) (*model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)

	// === Reminders ===

	GetRemindersForTask(ctx context.Context, taskID string) ([]model.Reminder, error)
	DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error)
	MarkReminderFired(ctx context.Context, id string) error

	// === Dashboard ===

	TeamSummary(ctx context.Context, now time.Time) (*TeamSummary, error)
}
