// Package task validates and applies changes to a task's fields,
// assignees, and status. It is the single place task invariants are
// enforced; authorization is the caller's concern, and the actor id is
// used only to exclude self-notification.
package task

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/store"
)

// CreateInput holds the fields accepted at task creation. Status is not
// settable here: every task starts in To Do.
type CreateInput struct {
	Title           string
	Description     string
	Priority        string
	Tags            []string
	DueDate         *time.Time
	Assignees       []string
	ReminderPresets []string
}

// UpdateInput holds a partial task update. Nil pointers and unset flags
// leave the corresponding fields untouched.
type UpdateInput struct {
	Title           *string
	Description     *string
	Status          *string
	Priority        *string
	Tags            []string
	TagsSet         bool
	DueDate         *time.Time
	DueDateSet      bool
	Assignees       []string
	AssigneesSet    bool
	ReminderPresets []string
}

// ListInput holds filter, sort, and pagination parameters for task
// lists. Pages are 1-indexed.
type ListInput struct {
	Statuses    []string
	Priorities  []string
	Tags        []string
	AssigneeIDs []string
	DueFrom     *time.Time
	DueTo       *time.Time
	Query       string
	SortBy      string
	SortDesc    bool
	Page        int
	PageSize    int
}

// Pagination describes a page of a filtered result set.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Engine applies task mutations against the store and derives the
// notifications and room broadcasts they imply.
type Engine struct {
	store       store.Store
	fanout      *notify.Fanout
	broadcaster notify.Broadcaster
}

// NewEngine creates a task engine.
func NewEngine(s store.Store, f *notify.Fanout, b notify.Broadcaster) *Engine {
	return &Engine{store: s, fanout: f, broadcaster: b}
}

// Create validates the input and creates a task owned by creatorID.
// Newly assigned users are notified; the creator never notifies
// themself, even when self-assigned.
func (e *Engine) Create(ctx context.Context, creatorID string, in CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title", "must not be empty")
	}

	priority := in.Priority
	if !model.ValidPriority(priority) {
		priority = model.PriorityMedium
	}

	assignees := dedup(in.Assignees)
	reminders, err := buildReminders(in.ReminderPresets, in.DueDate)
	if err != nil {
		return nil, err
	}

	t := model.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      model.StatusToDo,
		Priority:    priority,
		Tags:        dedup(in.Tags),
		DueDate:     in.DueDate,
		CreatorID:   creatorID,
	}

	created, err := e.store.CreateTask(ctx, t, assignees, reminders)
	if err != nil {
		return nil, err
	}

	if len(assignees) > 0 {
		e.fanout.Dispatch(ctx, notify.AssignmentEvent(created, creatorID, assignees))
	}
	return created, nil
}

// Update applies a partial update. Only fields present in the input
// change; replacing the assignee set preserves assigned_at for members
// that stay. Status changes notify current assignees, newly added
// members get assignment notifications, and the task room receives a
// task_updated broadcast. updated_at refreshes on every successful call.
func (e *Engine) Update(ctx context.Context, taskID, actorID string, in UpdateInput) (*model.Task, error) {
	patch := store.TaskPatch{
		Description:  in.Description,
		DueDate:      in.DueDate,
		DueDateSet:   in.DueDateSet,
		TagsSet:      in.TagsSet,
		AssigneesSet: in.AssigneesSet,
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Validation("title", "must not be empty")
		}
		patch.Title = &title
	}
	if in.Status != nil {
		if !model.ValidStatus(*in.Status) {
			return nil, apperr.Validation("status", "unknown status")
		}
		patch.Status = in.Status
	}
	if in.Priority != nil {
		if !model.ValidPriority(*in.Priority) {
			return nil, apperr.Validation("priority", "unknown priority")
		}
		patch.Priority = in.Priority
	}
	if in.TagsSet {
		patch.Tags = dedup(in.Tags)
	}
	if in.AssigneesSet {
		patch.Assignees = dedup(in.Assignees)
	}

	if len(in.ReminderPresets) > 0 {
		due := in.DueDate
		if !in.DueDateSet {
			cur, err := e.store.GetTaskByID(ctx, taskID)
			if err != nil {
				return nil, err
			}
			due = cur.DueDate
		}
		reminders, err := buildReminders(in.ReminderPresets, due)
		if err != nil {
			return nil, err
		}
		patch.Reminders = reminders
	}

	res, err := e.store.ApplyTaskUpdate(ctx, taskID, patch)
	if err != nil {
		return nil, err
	}

	if res.StatusChanged {
		e.fanout.Dispatch(ctx, notify.StatusEvent(res.Task, actorID))
	}
	if len(res.AddedAssignees) > 0 {
		e.fanout.Dispatch(ctx, notify.AssignmentEvent(res.Task, actorID, res.AddedAssignees))
	}
	e.broadcaster.Broadcast(notify.TaskRoom(taskID), notify.EventTaskUpdated, res.Task)

	return res.Task, nil
}

// Get returns a task with its comments.
func (e *Engine) Get(ctx context.Context, taskID string) (*model.Task, []model.Comment, error) {
	t, err := e.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := e.store.GetCommentsForTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	return t, comments, nil
}

// Delete removes a task and everything it owns. Notifications that
// reference it survive as historical record. Deleting a nonexistent
// task is a NotFoundError, not a no-op.
func (e *Engine) Delete(ctx context.Context, taskID string) error {
	return e.store.DeleteTask(ctx, taskID)
}

// BulkDelete removes tasks best-effort per id and returns how many were
// actually deleted. Missing ids are skipped rather than failing the
// batch.
func (e *Engine) BulkDelete(ctx context.Context, taskIDs []string) (int, error) {
	deleted := 0
	for _, id := range taskIDs {
		if err := e.store.DeleteTask(ctx, id); err != nil {
			log.Printf("task: bulk delete %s: %v", id, err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// List returns the page of tasks matching the filter, with pagination
// totals computed from the full filtered set.
func (e *Engine) List(ctx context.Context, in ListInput) ([]model.Task, *Pagination, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = 20
	}

	var query *string
	if q := strings.TrimSpace(in.Query); q != "" {
		query = &q
	}

	filter := store.TaskFilter{
		Statuses:    in.Statuses,
		Priorities:  in.Priorities,
		Tags:        in.Tags,
		AssigneeIDs: in.AssigneeIDs,
		DueFrom:     in.DueFrom,
		DueTo:       in.DueTo,
		Query:       query,
		SortBy:      in.SortBy,
		SortDesc:    in.SortDesc,
		Limit:       size,
		Offset:      (page - 1) * size,
	}

	total, err := e.store.CountTasks(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	items, err := e.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + size - 1) / size
	return items, &Pagination{
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// buildReminders snapshots reminder times from presets and the due date
// in effect at call time. The snapshot is never recomputed if the due
// date later changes.
func buildReminders(presets []string, dueDate *time.Time) ([]model.Reminder, error) {
	if len(presets) == 0 {
		return nil, nil
	}
	if dueDate == nil {
		return nil, apperr.Validation("reminders", "task has no due date to remind about")
	}

	var reminders []model.Reminder
	for _, preset := range presets {
		offset, ok := model.PresetOffset(preset)
		if !ok {
			return nil, apperr.Validation("reminders", "unknown preset "+preset)
		}
		reminders = append(reminders, model.Reminder{
			RemindAt: dueDate.Add(-offset),
			Preset:   preset,
		})
	}
	return reminders, nil
}

// dedup trims values, drops empties, and removes duplicates while
// preserving first-seen order.
func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
