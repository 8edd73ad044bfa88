// Package comment creates, edits, and deletes threaded comments on
// tasks, enforcing authorship rules: anyone with access may comment,
// but only the author or a manager may edit or delete.
package comment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/store"
)

// Engine applies comment mutations and derives the notifications and
// room broadcasts they imply.
type Engine struct {
	store       store.Store
	fanout      *notify.Fanout
	broadcaster notify.Broadcaster
}

// NewEngine creates a comment engine.
func NewEngine(s store.Store, f *notify.Fanout, b notify.Broadcaster) *Engine {
	return &Engine{store: s, fanout: f, broadcaster: b}
}

// Add attaches a comment to a task. A parent id, when given, must
// reference an existing comment on the same task. The task's creator
// and assignees are notified, excluding the author, and the task room
// receives a comment_added broadcast.
func (e *Engine) Add(ctx context.Context, taskID, authorID, body string, parentID *string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("body", "must not be empty")
	}

	t, err := e.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parent, err := e.store.GetCommentByID(ctx, *parentID)
		if err != nil {
			return nil, apperr.Validation("parent_comment_id", "parent comment does not exist")
		}
		if parent.TaskID != taskID {
			return nil, apperr.Validation("parent_comment_id", "parent comment belongs to a different task")
		}
	}

	c := model.Comment{
		ID:              uuid.New().String(),
		TaskID:          taskID,
		AuthorID:        authorID,
		Body:            body,
		ParentCommentID: parentID,
	}
	if err := e.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	created, err := e.store.GetCommentByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	e.fanout.Dispatch(ctx, notify.CommentEvent(t, created.ID, authorID))
	e.broadcaster.Broadcast(notify.TaskRoom(taskID), notify.EventCommentAdded, created)

	return created, nil
}

// Edit replaces a comment's body. Only the author or a manager may
// edit; edits refresh updated_at and do not notify anyone.
func (e *Engine) Edit(ctx context.Context, commentID, actorID, newBody string) (*model.Comment, error) {
	newBody = strings.TrimSpace(newBody)
	if newBody == "" {
		return nil, apperr.Validation("body", "must not be empty")
	}

	if err := e.authorize(ctx, commentID, actorID); err != nil {
		return nil, err
	}

	if err := e.store.UpdateCommentBody(ctx, commentID, newBody, time.Now().UTC()); err != nil {
		return nil, err
	}
	return e.store.GetCommentByID(ctx, commentID)
}

// Delete removes a comment under the same authorization rule as Edit.
// Replies to the deleted comment survive with their parent reference
// nulled.
func (e *Engine) Delete(ctx context.Context, commentID, actorID string) error {
	if err := e.authorize(ctx, commentID, actorID); err != nil {
		return err
	}
	return e.store.DeleteComment(ctx, commentID)
}

// authorize verifies the actor is the comment's author or a manager.
func (e *Engine) authorize(ctx context.Context, commentID, actorID string) error {
	c, err := e.store.GetCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if c.AuthorID == actorID {
		return nil
	}
	actor, err := e.store.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsManager() {
		return apperr.Forbidden("only the author or a manager may modify this comment")
	}
	return nil
}
