// Package notify schedules and delivers event reminders and end-of-event
// summaries. Reminders fire a configurable number of minutes before an
// event's stored UTC start; the summary fires at its end. Arming an event is
// idempotent: the pending task set for the event is always cleared before new
// tasks are scheduled, so create, update and the fallback reconcile path all
// go through the same code.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"roomly/internal/dispatch"
	"roomly/internal/models"
)

// Scheduler arms the delayed-task dispatcher for events.
type Scheduler struct {
	dispatcher  dispatch.Dispatcher
	leadMinutes []int
	metrics     *Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewScheduler creates a scheduler firing one reminder per entry of
// leadMinutes plus a summary at event end.
func NewScheduler(dispatcher dispatch.Dispatcher, leadMinutes []int, metrics *Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		dispatcher:  dispatcher,
		leadMinutes: leadMinutes,
		metrics:     metrics,
		logger:      logger.With().Str("component", "notify_scheduler").Logger(),
		now:         time.Now,
	}
}

// ScheduleEvent replaces the pending task set for the event. Tasks whose fire
// time has already passed are skipped silently; an event in the past ends up
// with no tasks at all.
func (s *Scheduler) ScheduleEvent(ctx context.Context, ev *models.Event) error {
	if err := s.dispatcher.CancelEvent(ctx, ev.ID); err != nil {
		return fmt.Errorf("cancel pending tasks for event %d: %w", ev.ID, err)
	}

	now := s.now().UTC()
	start := ev.StartAt()

	for _, lead := range s.leadMinutes {
		fireAt := start.Add(-time.Duration(lead) * time.Minute)
		if !fireAt.After(now) {
			s.metrics.IncSkippedPastDue()
			continue
		}
		task := dispatch.Task{
			ID:          taskID(ev.ID, dispatch.KindReminder, lead),
			EventID:     ev.ID,
			Kind:        dispatch.KindReminder,
			LeadMinutes: lead,
			FireAt:      fireAt,
		}
		if err := s.dispatcher.Schedule(ctx, task); err != nil {
			return fmt.Errorf("schedule reminder for event %d: %w", ev.ID, err)
		}
		s.metrics.IncScheduled()
	}

	end := ev.EndAt()
	if end.After(now) {
		task := dispatch.Task{
			ID:      taskID(ev.ID, dispatch.KindSummary, 0),
			EventID: ev.ID,
			Kind:    dispatch.KindSummary,
			FireAt:  end,
		}
		if err := s.dispatcher.Schedule(ctx, task); err != nil {
			return fmt.Errorf("schedule summary for event %d: %w", ev.ID, err)
		}
		s.metrics.IncScheduled()
	} else {
		s.metrics.IncSkippedPastDue()
	}

	s.logger.Debug().
		Int64("event_id", ev.ID).
		Time("start", start).
		Msg("Event notification tasks armed")

	return nil
}

// CancelEvent drops every pending task for the event.
func (s *Scheduler) CancelEvent(ctx context.Context, eventID int64) error {
	if err := s.dispatcher.CancelEvent(ctx, eventID); err != nil {
		return fmt.Errorf("cancel tasks for event %d: %w", eventID, err)
	}
	return nil
}

func taskID(eventID int64, kind dispatch.Kind, lead int) string {
	return fmt.Sprintf("%d:%s:%d", eventID, kind, lead)
}
