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

const commentSelect = `
	SELECT c.id, c.task_id, c.author_id, u.display_name, c.body,
	       c.parent_comment_id, c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

// CreateComment inserts a new comment. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateComment(ctx context.Context, c model.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (
			id, task_id, author_id, body, parent_comment_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TaskID, c.AuthorID, c.Body, c.ParentCommentID,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating comment: %w", err)
	}
	return nil
}

// GetCommentByID retrieves a single comment with its author name.
func (s *SQLiteStore) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	row := s.db.QueryRowxContext(ctx, commentSelect+" WHERE c.id = ?", id)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("comment", id)
		}
		return nil, fmt.Errorf("getting comment %s: %w", id, err)
	}
	return &c, nil
}

// GetCommentsForTask retrieves all comments on a task, oldest first.
func (s *SQLiteStore) GetCommentsForTask(ctx context.Context, taskID string) ([]model.Comment, error) {
	rows, err := s.db.QueryxContext(ctx,
		commentSelect+" WHERE c.task_id = ? ORDER BY c.created_at, c.id", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying comments for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateCommentBody replaces a comment's body and refreshes updated_at.
func (s *SQLiteStore) UpdateCommentBody(ctx context.Context, id, body string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE comments SET body = ?, updated_at = ? WHERE id = ?",
		body, updatedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating comment %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("comment", id)
	}
	return nil
}

// DeleteComment removes a comment. Replies keep their rows; their
// parent_comment_id nulls out at the schema level.
func (s *SQLiteStore) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperr.NotFound("comment", id)
	}
	return nil
}

// scanComment scans a comment row from a sqlx row source.
func scanComment(row interface{ Scan(dest ...interface{}) error }) (model.Comment, error) {
	var (
		c      model.Comment
		parent *string
	)

	err := row.Scan(
		&c.ID, &c.TaskID, &c.AuthorID, &c.AuthorName, &c.Body,
		&parent, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Comment{}, err
	}

	c.ParentCommentID = parent
	return c, nil
}
