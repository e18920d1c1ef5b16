package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanAdvance evaluates whether a message may move from current to next.
// Rules:
// - both statuses must be known
// - next must be the immediate successor of current (no skips, no regressions)
func CanAdvance(current, next models.DeliveryStatus) GuardResult {
	if current.Rank() == 0 || next.Rank() == 0 {
		return GuardResult{Reason: fmt.Sprintf("unknown status transition %q -> %q", current, next)}
	}
	if current.Terminal() {
		return GuardResult{Reason: fmt.Sprintf("status %q is terminal", current)}
	}
	want, _ := current.Next()
	if next != want {
		return GuardResult{Reason: fmt.Sprintf("cannot move from %q to %q, next status is %q", current, next, want)}
	}
	return GuardResult{Allowed: true}
}

// Timer is a scheduled task that can be stopped before it fires
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClockScheduler schedules tasks on the runtime timer
func ClockScheduler() Scheduler {
	return clockScheduler{}
}

// ApplyFunc applies a guarded status transition and reports whether it took effect
type ApplyFunc func(conversationID, messageID string, from, to models.DeliveryStatus) bool

type deliveryTask struct {
	timer Timer
}

// DeliveryTracker simulates acknowledgement of sent messages. Each tracked
// message gets one pending task at a time: sent->delivered after
// deliveredAfter, then delivered->read after readAfter.
type DeliveryTracker struct {
	mu             sync.Mutex
	sched          Scheduler
	deliveredAfter time.Duration
	readAfter      time.Duration
	apply          ApplyFunc
	pending        map[string]*deliveryTask
	stopped        bool
}

// NewDeliveryTracker creates a tracker that applies transitions through apply
func NewDeliveryTracker(sched Scheduler, deliveredAfter, readAfter time.Duration, apply ApplyFunc) *DeliveryTracker {
	if sched == nil {
		sched = ClockScheduler()
	}
	return &DeliveryTracker{
		sched:          sched,
		deliveredAfter: deliveredAfter,
		readAfter:      readAfter,
		apply:          apply,
		pending:        make(map[string]*deliveryTask),
	}
}

// Track starts the acknowledgement sequence for a message that was just sent
func (t *DeliveryTracker) Track(conversationID, messageID string) {
	t.schedule(conversationID, messageID, models.StatusSent, t.deliveredAfter)
}

func (t *DeliveryTracker) schedule(conversationID, messageID string, from models.DeliveryStatus, delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if old, ok := t.pending[messageID]; ok {
		old.timer.Stop()
	}
	task := &deliveryTask{}
	t.pending[messageID] = task
	task.timer = t.sched.AfterFunc(delay, func() {
		t.fire(task, conversationID, messageID, from)
	})
}

func (t *DeliveryTracker) fire(task *deliveryTask, conversationID, messageID string, from models.DeliveryStatus) {
	t.mu.Lock()
	if t.stopped || t.pending[messageID] != task {
		// cancelled or replaced after the timer was armed
		t.mu.Unlock()
		return
	}
	delete(t.pending, messageID)
	t.mu.Unlock()

	to, ok := from.Next()
	if !ok {
		return
	}
	if !t.apply(conversationID, messageID, from, to) {
		staleTransitions.Inc()
		return
	}
	if !to.Terminal() {
		t.schedule(conversationID, messageID, to, t.readAfter)
	}
}

// Pending reports whether a task is waiting for the message
func (t *DeliveryTracker) Pending(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[messageID]
	return ok
}

// Cancel drops the pending task for a message, if any
func (t *DeliveryTracker) Cancel(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	task, ok := t.pending[messageID]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(t.pending, messageID)
	return true
}

// Stop cancels every pending task; later Track calls are ignored
func (t *DeliveryTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for id, task := range t.pending {
		task.timer.Stop()
		delete(t.pending, id)
	}
}
