package store

import (
	"context"
	"fmt"
	"time"
)

// TeamSummary aggregates team-wide task counts for the manager
// dashboard: totals by status and priority, overdue tasks, and the
// not-done task load per assignee.
func (s *SQLiteStore) TeamSummary(ctx context.Context, now time.Time) (*TeamSummary, error) {
	summary := &TeamSummary{}

	if err := s.db.GetContext(ctx, &summary.TotalTasks,
		"SELECT COUNT(*) FROM tasks"); err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx,
		"SELECT status, COUNT(*) FROM tasks GROUP BY status ORDER BY status")
	if err != nil {
		return nil, fmt.Errorf("counting tasks by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		summary.ByStatus = append(summary.ByStatus, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := s.db.QueryxContext(ctx,
		"SELECT priority, COUNT(*) FROM tasks GROUP BY priority ORDER BY priority")
	if err != nil {
		return nil, fmt.Errorf("counting tasks by priority: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var pc PriorityCount
		if err := prows.Scan(&pc.Priority, &pc.Count); err != nil {
			return nil, fmt.Errorf("scanning priority count: %w", err)
		}
		summary.ByPriority = append(summary.ByPriority, pc)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.GetContext(ctx, &summary.OverdueTasks,
		"SELECT COUNT(*) FROM tasks WHERE due_date IS NOT NULL AND due_date < ? AND status != 'Done'",
		now.UTC(),
	); err != nil {
		return nil, fmt.Errorf("counting overdue tasks: %w", err)
	}

	arows, err := s.db.QueryxContext(ctx, `
		SELECT u.id, u.display_name, COUNT(t.id)
		FROM assignments a
		JOIN users u ON u.id = a.user_id
		JOIN tasks t ON t.id = a.task_id AND t.status != 'Done'
		GROUP BY u.id, u.display_name
		ORDER BY COUNT(t.id) DESC, u.display_name`)
	if err != nil {
		return nil, fmt.Errorf("computing assignee load: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var al AssigneeLoad
		if err := arows.Scan(&al.UserID, &al.DisplayName, &al.OpenTasks); err != nil {
			return nil, fmt.Errorf("scanning assignee load: %w", err)
		}
		summary.AssigneeLoad = append(summary.AssigneeLoad, al)
	}
	return summary, arows.Err()
}
