package store

import (
	"context"
	"fmt"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
)

// GetRemindersForTask retrieves all reminders for a task, soonest first.
func (s *SQLiteStore) GetRemindersForTask(ctx context.Context, taskID string) ([]model.Reminder, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM reminders WHERE task_id = ? ORDER BY remind_at", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying reminders for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DueReminders retrieves unfired reminders whose remind_at has passed.
func (s *SQLiteStore) DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM reminders WHERE fired = 0 AND remind_at <= ? ORDER BY remind_at",
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderFired records that a reminder's notification has been
// produced, so it fires at most once.
func (s *SQLiteStore) MarkReminderFired(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE reminders SET fired = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking reminder %s fired: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("reminder", id)
	}
	return nil
}

// scanReminder scans a reminder row from a sqlx row source.
func scanReminder(row interface{ Scan(dest ...interface{}) error }) (model.Reminder, error) {
	var (
		r        model.Reminder
		firedInt int
	)

	err := row.Scan(
		&r.ID, &r.TaskID, &r.RemindAt, &r.Preset, &firedInt, &r.CreatedAt,
	)
	if err != nil {
		return model.Reminder{}, err
	}

	r.Fired = firedInt != 0
	return r, nil
}
