package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
)

// CreateTask inserts a task with its tags, assignments, and reminders in
// a single transaction. Assignee ids are validated against the users
// table; an unknown id fails the whole creation with a NotFoundError.
func (s *SQLiteStore) CreateTask(
	ctx context.Context,
	t model.Task,
	assignees []string,
	reminders []model.Reminder,
) (*model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.DueDate != nil {
		// Store in UTC so TEXT range comparisons and ordering hold
		// across submissions with mixed offsets.
		utc := t.DueDate.UTC()
		t.DueDate = &utc
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, status, priority,
			due_date, creator_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.CreatorID, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	if err := replaceTags(ctx, tx, t.ID, t.Tags); err != nil {
		return nil, err
	}

	if err := usersExist(ctx, tx, assignees); err != nil {
		return nil, err
	}
	for _, userID := range assignees {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO assignments (task_id, user_id, assigned_at)
			VALUES (?, ?, ?)`,
			t.ID, userID, now,
		)
		if err != nil {
			return nil, fmt.Errorf("assigning user %s: %w", userID, err)
		}
	}

	if err := insertReminders(ctx, tx, t.ID, reminders); err != nil {
		return nil, err
	}

	created, err := getTask(ctx, tx, t.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task create: %w", err)
	}
	return created, nil
}

// GetTaskByID retrieves a single task with its tags and assignees.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	return getTask(ctx, s.db, id)
}

// ApplyTaskUpdate applies a partial update in a single transaction and
// reports what changed. Fields absent from the patch keep their prior
// values; unchanged assignees keep their original assigned_at.
func (s *SQLiteStore) ApplyTaskUpdate(
	ctx context.Context,
	id string,
	patch TaskPatch,
) (*TaskUpdateResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res := &TaskUpdateResult{}

	title := cur.Title
	if patch.Title != nil {
		title = *patch.Title
	}
	description := cur.Description
	if patch.Description != nil {
		description = *patch.Description
	}
	status := cur.Status
	if patch.Status != nil {
		status = *patch.Status
		res.StatusChanged = status != cur.Status
	}
	priority := cur.Priority
	if patch.Priority != nil {
		priority = *patch.Priority
	}
	dueDate := cur.DueDate
	if patch.DueDateSet {
		dueDate = patch.DueDate
		if dueDate != nil {
			utc := dueDate.UTC()
			dueDate = &utc
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?, priority = ?,
			due_date = ?, updated_at = ?
		WHERE id = ?`,
		title, description, status, priority, dueDate, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}

	if patch.TagsSet {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM task_tags WHERE task_id = ?", id); err != nil {
			return nil, fmt.Errorf("clearing tags for task %s: %w", id, err)
		}
		if err := replaceTags(ctx, tx, id, patch.Tags); err != nil {
			return nil, err
		}
	}

	if patch.AssigneesSet {
		existing := make(map[string]bool, len(cur.Assignees))
		for _, a := range cur.Assignees {
			existing[a.UserID] = true
		}
		desired := make(map[string]bool, len(patch.Assignees))
		for _, userID := range patch.Assignees {
			desired[userID] = true
		}

		var added []string
		for _, userID := range patch.Assignees {
			if !existing[userID] && !contains(added, userID) {
				added = append(added, userID)
			}
		}
		if err := usersExist(ctx, tx, added); err != nil {
			return nil, err
		}
		for _, userID := range added {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO assignments (task_id, user_id, assigned_at)
				VALUES (?, ?, ?)`,
				id, userID, now,
			)
			if err != nil {
				return nil, fmt.Errorf("assigning user %s: %w", userID, err)
			}
		}

		for _, a := range cur.Assignees {
			if desired[a.UserID] {
				continue
			}
			_, err := tx.ExecContext(ctx,
				"DELETE FROM assignments WHERE task_id = ? AND user_id = ?",
				id, a.UserID,
			)
			if err != nil {
				return nil, fmt.Errorf("unassigning user %s: %w", a.UserID, err)
			}
			res.RemovedAssignees = append(res.RemovedAssignees, a.UserID)
		}
		res.AddedAssignees = added
	}

	if err := insertReminders(ctx, tx, id, patch.Reminders); err != nil {
		return nil, err
	}

	updated, err := getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	res.Task = updated

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task update: %w", err)
	}
	return res, nil
}

// DeleteTask removes a task. Assignments, comments, task tags, and
// reminders cascade at the schema level; notifications referencing the
// task remain as historical record.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("task", id)
	}
	return nil
}

// ListTasks retrieves hydrated tasks matching the filter.
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery("SELECT tasks.*", filter, false)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		if err := hydrateTask(ctx, s.db, &tasks[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// CountTasks returns the number of tasks matching the filter, ignoring
// pagination.
func (s *SQLiteStore) CountTasks(ctx context.Context, filter TaskFilter) (int, error) {
	query, args := buildTaskQuery("SELECT COUNT(DISTINCT tasks.id)", filter, true)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

// priorityRank orders Low < Medium < High for sorting.
const priorityRank = "CASE tasks.priority WHEN 'Low' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END"

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
// When count is true, ordering and pagination are omitted.
func buildTaskQuery(selectClause string, filter TaskFilter, count bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	from := " FROM tasks"
	needsGroup := false
	if len(filter.Tags) > 0 {
		from += " INNER JOIN task_tags ON tasks.id = task_tags.task_id"
		needsGroup = true
	}
	if len(filter.AssigneeIDs) > 0 {
		from += " INNER JOIN assignments ON tasks.id = assignments.task_id"
		needsGroup = true
	}

	addIn := func(column string, values []string) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			args = append(args, v)
		}
		conditions = append(conditions,
			column+" IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.Statuses) > 0 {
		addIn("tasks.status", filter.Statuses)
	}
	if len(filter.Priorities) > 0 {
		addIn("tasks.priority", filter.Priorities)
	}
	if len(filter.Tags) > 0 {
		addIn("task_tags.tag", filter.Tags)
	}
	if len(filter.AssigneeIDs) > 0 {
		addIn("assignments.user_id", filter.AssigneeIDs)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, "tasks.due_date >= ?")
		args = append(args, filter.DueFrom.UTC())
	}
	if filter.DueTo != nil {
		conditions = append(conditions, "tasks.due_date <= ?")
		args = append(args, filter.DueTo.UTC())
	}
	if filter.Query != nil && *filter.Query != "" {
		// LIKE is case-insensitive for ASCII in SQLite.
		conditions = append(conditions,
			"(tasks.title LIKE ? OR tasks.description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := selectClause + from
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if count {
		return query, args
	}

	if needsGroup {
		query += " GROUP BY tasks.id"
	}

	sortBy := "tasks.created_at"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"due_date":   "tasks.due_date",
			"priority":   priorityRank,
			"created_at": "tasks.created_at",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	// Ties always break by task id ascending so pages are deterministic.
	query += fmt.Sprintf(" ORDER BY %s %s, tasks.id ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}

// getTask loads a hydrated task through any sqlx queryer (db or tx).
func getTask(ctx context.Context, q sqlx.QueryerContext, id string) (*model.Task, error) {
	row := q.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("task", id)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	if err := hydrateTask(ctx, q, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// hydrateTask loads the task's tags and assignees.
func hydrateTask(ctx context.Context, q sqlx.QueryerContext, t *model.Task) error {
	rows, err := q.QueryxContext(ctx,
		"SELECT tag FROM task_tags WHERE task_id = ? ORDER BY tag", t.ID)
	if err != nil {
		return fmt.Errorf("loading tags for task %s: %w", t.ID, err)
	}
	defer rows.Close()

	t.Tags = []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return fmt.Errorf("scanning tag: %w", err)
		}
		t.Tags = append(t.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	arows, err := q.QueryxContext(ctx, `
		SELECT a.task_id, a.user_id, u.display_name, a.assigned_at
		FROM assignments a
		JOIN users u ON u.id = a.user_id
		WHERE a.task_id = ?
		ORDER BY a.assigned_at, a.user_id`, t.ID)
	if err != nil {
		return fmt.Errorf("loading assignees for task %s: %w", t.ID, err)
	}
	defer arows.Close()

	t.Assignees = []model.Assignment{}
	for arows.Next() {
		var a model.Assignment
		if err := arows.Scan(&a.TaskID, &a.UserID, &a.DisplayName, &a.AssignedAt); err != nil {
			return fmt.Errorf("scanning assignment: %w", err)
		}
		t.Assignees = append(t.Assignees, a)
	}
	return arows.Err()
}

// scanTask scans a task row from a sqlx row source.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		t       model.Task
		dueDate *time.Time
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &t.CreatorID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	t.DueDate = dueDate
	return t, nil
}

// replaceTags inserts the given tags for a task. Duplicates collapse via
// the primary key.
func replaceTags(ctx context.Context, tx *sqlx.Tx, taskID string, tags []string) error {
	for _, tag := range tags {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)",
			taskID, tag,
		)
		if err != nil {
			return fmt.Errorf("tagging task %s: %w", taskID, err)
		}
	}
	return nil
}

// insertReminders inserts reminder rows for a task.
func insertReminders(ctx context.Context, tx *sqlx.Tx, taskID string, reminders []model.Reminder) error {
	for _, r := range reminders {
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reminders (id, task_id, remind_at, preset, fired, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, taskID, r.RemindAt.UTC(), r.Preset, boolToInt(r.Fired), r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("creating reminder for task %s: %w", taskID, err)
		}
	}
	return nil
}

// usersExist verifies every id references an existing user, returning a
// NotFoundError for the first missing one.
func usersExist(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	for _, id := range ids {
		var count int
		err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("checking user %s: %w", id, err)
		}
		if count == 0 {
			return apperr.NotFound("user", id)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
