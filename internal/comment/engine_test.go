package comment_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/comment"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/task"
	"github.com/taskboard/taskboard/tests/testutil"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Broadcast(room, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, room+"/"+event)
}

func (b *recordingBroadcaster) recorded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

type fixture struct {
	store      *store.SQLiteStore
	comments   *comment.Engine
	bcast      *recordingBroadcaster
	creator    model.User
	assignee   model.User
	coassignee model.User
	task       *model.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewTestStore(t)
	b := &recordingBroadcaster{}
	f := notify.New(s, b)
	tasks := task.NewEngine(s, f, b)

	creator := testutil.SeedUser(t, s, "Ana")
	assignee := testutil.SeedUser(t, s, "Bo")
	coassignee := testutil.SeedUser(t, s, "Cam")

	created, err := tasks.Create(context.Background(), creator.ID, task.CreateInput{
		Title:     "Ship release",
		Assignees: []string{assignee.ID, coassignee.ID},
	})
	require.NoError(t, err)

	return &fixture{
		store:      s,
		comments:   comment.NewEngine(s, f, b),
		bcast:      b,
		creator:    creator,
		assignee:   assignee,
		coassignee: coassignee,
		task:       created,
	}
}

func commentNotifications(t *testing.T, fx *fixture, userID string) []model.Notification {
	t.Helper()
	all, err := fx.store.GetNotificationsForUser(context.Background(), userID)
	require.NoError(t, err)
	var out []model.Notification
	for _, n := range all {
		if n.Type == model.NotificationNewComment {
			out = append(out, n)
		}
	}
	return out
}

func TestAddCommentNotifiesWatchersExceptAuthor(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	added, err := fx.comments.Add(ctx, fx.task.ID, fx.assignee.ID, "looks good", nil)
	require.NoError(t, err)
	require.Equal(t, "looks good", added.Body)
	require.Equal(t, "Bo", added.AuthorName)

	// The creator and the other assignee each get exactly one
	// notification with the comment as reference.
	for _, watcher := range []model.User{fx.creator, fx.coassignee} {
		notifs := commentNotifications(t, fx, watcher.ID)
		require.Len(t, notifs, 1, watcher.DisplayName)
		require.Equal(t, added.ID, notifs[0].ReferenceID)
	}

	// The author gets nothing.
	require.Empty(t, commentNotifications(t, fx, fx.assignee.ID))

	require.Contains(t, fx.bcast.recorded(), notify.TaskRoom(fx.task.ID)+"/"+notify.EventCommentAdded)
}

func TestAddReplyToSameTaskParent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	parent, err := fx.comments.Add(ctx, fx.task.ID, fx.creator.ID, "first", nil)
	require.NoError(t, err)

	reply, err := fx.comments.Add(ctx, fx.task.ID, fx.assignee.ID, "second", &parent.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentCommentID)
	require.Equal(t, parent.ID, *reply.ParentCommentID)
}

func TestAddReplyRejectsCrossTaskParent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	other, err := task.NewEngine(fx.store, notify.New(fx.store, fx.bcast), fx.bcast).
		Create(ctx, fx.creator.ID, task.CreateInput{Title: "Other task"})
	require.NoError(t, err)

	parent, err := fx.comments.Add(ctx, other.ID, fx.creator.ID, "elsewhere", nil)
	require.NoError(t, err)

	_, err = fx.comments.Add(ctx, fx.task.ID, fx.creator.ID, "reply", &parent.ID)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestAddRejectsMissingParent(t *testing.T) {
	fx := newFixture(t)

	missing := "nope"
	_, err := fx.comments.Add(context.Background(), fx.task.ID, fx.creator.ID, "reply", &missing)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestAddRejectsEmptyBody(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.comments.Add(context.Background(), fx.task.ID, fx.creator.ID, "   ", nil)
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestEditOnlyByAuthorOrManager(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	manager := testutil.SeedManager(t, fx.store, "Max")

	added, err := fx.comments.Add(ctx, fx.task.ID, fx.creator.ID, "original", nil)
	require.NoError(t, err)

	_, err = fx.comments.Edit(ctx, added.ID, fx.assignee.ID, "hijacked")
	var forbidden *apperr.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	edited, err := fx.comments.Edit(ctx, added.ID, fx.creator.ID, "by author")
	require.NoError(t, err)
	require.Equal(t, "by author", edited.Body)

	edited, err = fx.comments.Edit(ctx, added.ID, manager.ID, "by manager")
	require.NoError(t, err)
	require.Equal(t, "by manager", edited.Body)
}

func TestDeleteOnlyByAuthorOrManager(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	added, err := fx.comments.Add(ctx, fx.task.ID, fx.assignee.ID, "mine", nil)
	require.NoError(t, err)

	err = fx.comments.Delete(ctx, added.ID, fx.creator.ID)
	var forbidden *apperr.ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	require.NoError(t, fx.comments.Delete(ctx, added.ID, fx.assignee.ID))

	_, err = fx.store.GetCommentByID(ctx, added.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteParentKeepsReplies(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	parent, err := fx.comments.Add(ctx, fx.task.ID, fx.creator.ID, "parent", nil)
	require.NoError(t, err)
	reply, err := fx.comments.Add(ctx, fx.task.ID, fx.assignee.ID, "reply", &parent.ID)
	require.NoError(t, err)

	require.NoError(t, fx.comments.Delete(ctx, parent.ID, fx.creator.ID))

	kept, err := fx.store.GetCommentByID(ctx, reply.ID)
	require.NoError(t, err)
	require.Nil(t, kept.ParentCommentID)
}
