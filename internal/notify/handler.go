package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"roomly/internal/database"
	"roomly/internal/dispatch"
	"roomly/internal/models"
)

// Store is the slice of the database the handler reads when a task fires.
type Store interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error)
	GetPushSubscriptions(ctx context.Context, employeeID int64) ([]models.PushSubscription, error)
}

// Handler resolves fired tasks against the live database and fans the
// message out to the event's author and attendees. Delivery is at-least-once
// and tasks can outlive their event, so a missing event is a quiet no-op
// rather than an error.
type Handler struct {
	store   Store
	mail    MailSender
	push    PushSender
	metrics *Metrics
	logger  zerolog.Logger
}

// NewHandler creates a fired-task handler. mail and push may be nil when a
// channel is not configured.
func NewHandler(store Store, mail MailSender, push PushSender, metrics *Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		store:   store,
		mail:    mail,
		push:    push,
		metrics: metrics,
		logger:  logger.With().Str("component", "notify_handler").Logger(),
	}
}

// Handle is the dispatch.Handler entry point.
func (h *Handler) Handle(ctx context.Context, task dispatch.Task) {
	ev, err := h.store.GetEvent(ctx, task.EventID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			h.logger.Debug().
				Int64("event_id", task.EventID).
				Str("kind", string(task.Kind)).
				Msg("Task fired for deleted event, skipping")
			return
		}
		h.logger.Error().Err(err).Int64("event_id", task.EventID).Msg("Failed to load event for fired task")
		return
	}

	roomName := fmt.Sprintf("room %d", ev.RoomID)
	if room, err := h.store.GetRoom(ctx, ev.RoomID); err == nil {
		roomName = room.Name
	}

	subject, body := h.compose(task, ev, roomName)

	recipients := make([]int64, 0, len(ev.EmployeeIDs)+1)
	recipients = append(recipients, ev.AuthorID)
	for _, id := range ev.EmployeeIDs {
		if id != ev.AuthorID {
			recipients = append(recipients, id)
		}
	}

	for _, employeeID := range recipients {
		h.deliver(ctx, task, employeeID, subject, body)
	}
}

func (h *Handler) compose(task dispatch.Task, ev *models.Event, roomName string) (subject, body string) {
	when := ev.StartAt().Format("2006-01-02 15:04")
	switch task.Kind {
	case dispatch.KindSummary:
		subject = fmt.Sprintf("Finished: %s", ev.Name)
		body = fmt.Sprintf("The event %q in %s has ended. It ran %s to %s UTC on %s.",
			ev.Name, roomName, ev.TimeStart, ev.TimeEnd, ev.Date.Format("2006-01-02"))
	default:
		subject = fmt.Sprintf("Upcoming: %s", ev.Name)
		body = fmt.Sprintf("The event %q starts in %d minutes, at %s UTC, in %s.",
			ev.Name, task.LeadMinutes, when, roomName)
	}
	return subject, body
}

// deliver sends over every configured channel. Per-recipient failures are
// logged and counted but never abort the fan-out.
func (h *Handler) deliver(ctx context.Context, task dispatch.Task, employeeID int64, subject, body string) {
	emp, err := h.store.GetEmployee(ctx, employeeID)
	if err != nil {
		h.logger.Warn().Err(err).Int64("employee_id", employeeID).Msg("Failed to load notification recipient")
		return
	}

	kind := string(task.Kind)

	if h.mail != nil && emp.Email != "" {
		started := time.Now()
		if err := h.mail.Send(ctx, emp.Email, subject, body); err != nil {
			h.logger.Warn().Err(err).Int64("employee_id", employeeID).Msg("Mail delivery failed")
			h.metrics.IncSent("error", kind, "mail")
		} else {
			h.metrics.IncSent("ok", kind, "mail")
		}
		h.metrics.ObserveSendDuration(time.Since(started).Seconds())
	}

	if h.push == nil {
		return
	}

	subs, err := h.store.GetPushSubscriptions(ctx, employeeID)
	if err != nil {
		h.logger.Warn().Err(err).Int64("employee_id", employeeID).Msg("Failed to load push subscriptions")
		return
	}

	payload := encodePushPayload(subject, body)
	for _, sub := range subs {
		started := time.Now()
		if err := h.push.Send(ctx, sub, payload); err != nil {
			h.logger.Warn().Err(err).
				Int64("employee_id", employeeID).
				Int64("subscription_id", sub.ID).
				Msg("Push delivery failed")
			h.metrics.IncSent("error", kind, "push")
		} else {
			h.metrics.IncSent("ok", kind, "push")
		}
		h.metrics.ObserveSendDuration(time.Since(started).Seconds())
	}
}
