package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
)

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, reference_id, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, string(n.Type), n.ReferenceID, n.Message,
		boolToInt(n.IsRead), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// GetNotificationsForUser retrieves all of a user's notifications,
// newest first.
func (s *SQLiteStore) GetNotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// GetNotificationByID retrieves a single notification.
func (s *SQLiteStore) GetNotificationByID(ctx context.Context, id string) (*model.Notification, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM notifications WHERE id = ?", id)
	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("notification", id)
		}
		return nil, fmt.Errorf("getting notification %s: %w", id, err)
	}
	return &n, nil
}

// MarkNotificationRead marks a single notification as read. Marking an
// already-read notification is a no-op, not an error.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("checking notification %s: %w", id, err)
	}
	if count == 0 {
		return apperr.NotFound("notification", id)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks all of a user's unread notifications as
// read and returns the number affected.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0",
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read for user %s: %w", userID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting marked notifications: %w", err)
	}
	return int(rows), nil
}

// scanNotification scans a notification row from a sqlx row source.
func scanNotification(row interface{ Scan(dest ...interface{}) error }) (model.Notification, error) {
	var (
		n       model.Notification
		ntype   string
		readInt int
	)

	err := row.Scan(
		&n.ID, &n.UserID, &ntype, &n.ReferenceID, &n.Message,
		&readInt, &n.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, err
	}

	n.Type = model.NotificationType(ntype)
	n.IsRead = readInt != 0
	return n, nil
}
