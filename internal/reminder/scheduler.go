// Package reminder sweeps due reminders into reminder notifications.
// Reminder times are snapshot when the reminder is created; the sweep
// only compares them against the clock.
package reminder

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/store"
)

// sweepTimeout is the maximum time allowed for a single sweep.
const sweepTimeout = 30 * time.Second

// Scheduler periodically fires due reminders through the notification
// fan-out. Each reminder fires at most once.
type Scheduler struct {
	store    store.Store
	fanout   *notify.Fanout
	interval time.Duration

	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// New creates a scheduler sweeping at the given interval.
func New(s store.Store, f *notify.Fanout, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:     s,
		fanout:    f,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the background sweep loop. Calling Start on a running
// scheduler is a no-op; a stopped scheduler can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go s.loop(stopCh)
}

// Stop terminates the sweep loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// Trigger requests an immediate sweep without waiting for the ticker.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.triggerCh:
			s.sweepOnce()
		case <-stopCh:
			return
		}
	}
}

func (s *Scheduler) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if err := s.Sweep(ctx, time.Now()); err != nil {
		log.Printf("reminder: sweep: %v", err)
	}
}

// Sweep fires every unfired reminder whose time has passed: the task
// creator gets a reminder notification and the reminder is marked fired.
// A failure on one reminder does not stop the rest.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) error {
	due, err := s.store.DueReminders(ctx, now)
	if err != nil {
		return err
	}

	for _, r := range due {
		t, err := s.store.GetTaskByID(ctx, r.TaskID)
		if err != nil {
			log.Printf("reminder: loading task %s: %v", r.TaskID, err)
			continue
		}

		s.fanout.Dispatch(ctx, notify.ReminderEvent(t))

		if err := s.store.MarkReminderFired(ctx, r.ID); err != nil {
			log.Printf("reminder: marking %s fired: %v", r.ID, err)
		}
	}
	return nil
}
