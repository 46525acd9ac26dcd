// Package dispatch provides the delayed-task dispatcher the notification
// scheduler arms. Tasks are keyed by the event they belong to so edits and
// deletes can cancel everything pending for one event in a single call.
package dispatch

import (
	"context"
	"time"
)

// Kind is the type of notification a task carries.
type Kind string

const (
	KindReminder Kind = "reminder"
	KindSummary  Kind = "summary"
)

// Task is one scheduled notification delivery.
type Task struct {
	ID          string    `json:"id"`
	EventID     int64     `json:"event_id"`
	Kind        Kind      `json:"kind"`
	LeadMinutes int       `json:"lead_minutes"`
	FireAt      time.Time `json:"fire_at"`
}

// Handler consumes a fired task. Delivery is at-least-once: a handler must
// tolerate duplicate and stale tasks (an event deleted after scheduling
// simply resolves to a no-op).
type Handler func(ctx context.Context, task Task)

// Dispatcher schedules tasks to fire at a future instant and cancels the
// pending set for an event.
type Dispatcher interface {
	Schedule(ctx context.Context, task Task) error
	CancelEvent(ctx context.Context, eventID int64) error
}
