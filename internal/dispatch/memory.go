package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MemoryDispatcher runs tasks on in-process timers. It is the single-node
// deployment mode and the workhorse for tests; pending tasks do not survive a
// restart, which the Redis dispatcher exists to fix.
type MemoryDispatcher struct {
	handler Handler
	logger  zerolog.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	byEvent map[int64]map[string]struct{}
}

// NewMemoryDispatcher creates a dispatcher delivering to handler.
func NewMemoryDispatcher(handler Handler, logger zerolog.Logger) *MemoryDispatcher {
	return &MemoryDispatcher{
		handler: handler,
		logger:  logger.With().Str("component", "dispatch").Logger(),
		timers:  make(map[string]*time.Timer),
		byEvent: make(map[int64]map[string]struct{}),
	}
}

// Schedule arms a timer for the task. A task already due fires immediately.
func (d *MemoryDispatcher) Schedule(_ context.Context, task Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delay := time.Until(task.FireAt)
	if delay < 0 {
		delay = 0
	}

	if old, ok := d.timers[task.ID]; ok {
		old.Stop()
	}
	d.timers[task.ID] = time.AfterFunc(delay, func() { d.fire(task) })
	if d.byEvent[task.EventID] == nil {
		d.byEvent[task.EventID] = make(map[string]struct{})
	}
	d.byEvent[task.EventID][task.ID] = struct{}{}

	d.logger.Debug().
		Str("task_id", task.ID).
		Int64("event_id", task.EventID).
		Str("kind", string(task.Kind)).
		Time("fire_at", task.FireAt).
		Msg("task scheduled")
	return nil
}

func (d *MemoryDispatcher) fire(task Task) {
	d.mu.Lock()
	_, pending := d.timers[task.ID]
	delete(d.timers, task.ID)
	if ids := d.byEvent[task.EventID]; ids != nil {
		delete(ids, task.ID)
		if len(ids) == 0 {
			delete(d.byEvent, task.EventID)
		}
	}
	d.mu.Unlock()

	// A cancel racing the timer can leave the task already removed.
	if !pending {
		return
	}
	d.handler(context.Background(), task)
}

// CancelEvent stops every pending timer tied to the event.
func (d *MemoryDispatcher) CancelEvent(_ context.Context, eventID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id := range d.byEvent[eventID] {
		if t, ok := d.timers[id]; ok {
			t.Stop()
			delete(d.timers, id)
		}
	}
	delete(d.byEvent, eventID)
	return nil
}

// PendingForEvent reports how many tasks are still armed for the event.
func (d *MemoryDispatcher) PendingForEvent(eventID int64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byEvent[eventID])
}

// Close stops every pending timer.
func (d *MemoryDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
	d.byEvent = make(map[int64]map[string]struct{})
}
