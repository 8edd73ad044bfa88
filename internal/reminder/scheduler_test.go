package reminder_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/reminder"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/tests/testutil"
)

type countingBroadcaster struct {
	mu    sync.Mutex
	count int
}

func (b *countingBroadcaster) Broadcast(room, event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count++
}

func seedReminderTask(t *testing.T, s store.Store, creatorID string, due time.Time, presets ...string) *model.Task {
	t.Helper()
	var reminders []model.Reminder
	for _, p := range presets {
		offset, ok := model.PresetOffset(p)
		require.True(t, ok)
		reminders = append(reminders, model.Reminder{RemindAt: due.Add(-offset), Preset: p})
	}
	created, err := s.CreateTask(context.Background(), model.Task{
		Title:     "Ship release",
		Status:    model.StatusToDo,
		Priority:  model.PriorityMedium,
		DueDate:   &due,
		CreatorID: creatorID,
	}, nil, reminders)
	require.NoError(t, err)
	return created
}

func TestSweepFiresDueRemindersOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	b := &countingBroadcaster{}
	f := notify.New(s, b)
	sched := reminder.New(s, f, time.Minute)
	ctx := context.Background()

	creator := testutil.SeedUser(t, s, "Ana")
	due := time.Now().UTC().Add(30 * time.Minute)
	task := seedReminderTask(t, s, creator.ID, due, model.ReminderPreset1Hour, model.ReminderPreset1Week)

	// Both remind_at times are already in the past.
	require.NoError(t, sched.Sweep(ctx, time.Now().UTC()))

	notifs, err := s.GetNotificationsForUser(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	for _, n := range notifs {
		require.Equal(t, model.NotificationReminder, n.Type)
		require.Equal(t, task.ID, n.ReferenceID)
	}

	// A second sweep finds nothing new.
	require.NoError(t, sched.Sweep(ctx, time.Now().UTC()))
	notifs, err = s.GetNotificationsForUser(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 2)
}

func TestSweepLeavesFutureReminders(t *testing.T) {
	s := testutil.NewTestStore(t)
	f := notify.New(s, &countingBroadcaster{})
	sched := reminder.New(s, f, time.Minute)
	ctx := context.Background()

	creator := testutil.SeedUser(t, s, "Ana")
	due := time.Now().UTC().Add(48 * time.Hour)
	seedReminderTask(t, s, creator.ID, due, model.ReminderPreset1Day)

	require.NoError(t, sched.Sweep(ctx, time.Now().UTC()))

	notifs, err := s.GetNotificationsForUser(ctx, creator.ID)
	require.NoError(t, err)
	require.Empty(t, notifs)
}

func TestSweepSkipsDeletedTask(t *testing.T) {
	s := testutil.NewTestStore(t)
	f := notify.New(s, &countingBroadcaster{})
	sched := reminder.New(s, f, time.Minute)
	ctx := context.Background()

	creator := testutil.SeedUser(t, s, "Ana")
	due := time.Now().UTC().Add(30 * time.Minute)
	doomed := seedReminderTask(t, s, creator.ID, due, model.ReminderPreset1Hour)
	kept := seedReminderTask(t, s, creator.ID, due, model.ReminderPreset1Hour)

	require.NoError(t, s.DeleteTask(ctx, doomed.ID))

	require.NoError(t, sched.Sweep(ctx, time.Now().UTC()))

	notifs, err := s.GetNotificationsForUser(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	require.Equal(t, kept.ID, notifs[0].ReferenceID)
}

func TestStartStopIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	sched := reminder.New(s, notify.New(s, &countingBroadcaster{}), time.Hour)

	sched.Start()
	sched.Start()
	sched.Trigger()
	sched.Stop()
	sched.Stop()
}

func TestRestartedSchedulerStillSweeps(t *testing.T) {
	s := testutil.NewTestStore(t)
	f := notify.New(s, &countingBroadcaster{})
	sched := reminder.New(s, f, time.Hour)
	ctx := context.Background()

	creator := testutil.SeedUser(t, s, "Ana")
	due := time.Now().UTC().Add(30 * time.Minute)
	seedReminderTask(t, s, creator.ID, due, model.ReminderPreset1Hour)

	sched.Start()
	sched.Stop()
	sched.Start()
	defer sched.Stop()

	// The relaunched loop must still react to triggers.
	sched.Trigger()
	require.Eventually(t, func() bool {
		notifs, err := s.GetNotificationsForUser(ctx, creator.ID)
		return err == nil && len(notifs) == 1
	}, 5*time.Second, 10*time.Millisecond)
}
