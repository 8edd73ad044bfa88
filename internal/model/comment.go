package model

import "time"

// Comment is a message attached to a task. ParentCommentID is a weak
// back-reference to another comment on the same task: deleting the
// parent nulls the reference rather than deleting the reply.
type Comment struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"task_id"`
	AuthorID        string     `json:"author_id"`
	AuthorName      string     `json:"author_name"`
	Body            string     `json:"body"`
	ParentCommentID *string    `json:"parent_comment_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
