package notify

import (
	"fmt"

	"github.com/taskboard/taskboard/internal/model"
)

// Event is a domain event to fan out as notifications. Recipients is
// the affected-user set for the event; the actor is filtered out during
// dispatch regardless of whether they appear in it.
type Event struct {
	Type       model.NotificationType
	Ref        Ref
	ActorID    string
	Recipients []string
	Message    string
}

// AssignmentEvent notifies newly assigned users only.
func AssignmentEvent(task *model.Task, actorID string, newAssignees []string) Event {
	return Event{
		Type:       model.NotificationAssignment,
		Ref:        TaskRef(task.ID),
		ActorID:    actorID,
		Recipients: newAssignees,
		Message:    fmt.Sprintf("You have been assigned to task %q", task.Title),
	}
}

// StatusEvent notifies all current assignees of a status change.
func StatusEvent(task *model.Task, actorID string) Event {
	return Event{
		Type:       model.NotificationStatusUpdate,
		Ref:        TaskRef(task.ID),
		ActorID:    actorID,
		Recipients: task.AssigneeIDs(),
		Message:    fmt.Sprintf("Task %q moved to %s", task.Title, task.Status),
	}
}

// CommentEvent notifies the task creator and all current assignees of a
// new comment.
func CommentEvent(task *model.Task, commentID, actorID string) Event {
	recipients := append([]string{task.CreatorID}, task.AssigneeIDs()...)
	return Event{
		Type:       model.NotificationNewComment,
		Ref:        CommentRef(commentID),
		ActorID:    actorID,
		Recipients: recipients,
		Message:    fmt.Sprintf("New comment on task %q", task.Title),
	}
}

// ReminderEvent notifies the task creator that a reminder fired.
func ReminderEvent(task *model.Task) Event {
	return Event{
		Type:       model.NotificationReminder,
		Ref:        TaskRef(task.ID),
		Recipients: []string{task.CreatorID},
		Message:    fmt.Sprintf("Reminder: task %q is due soon", task.Title),
	}
}
