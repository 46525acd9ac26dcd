package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"roomly/internal/bus"
	"roomly/internal/database"
	"roomly/internal/models"
	"roomly/internal/recurrence"
)

// EventStore is the storage surface the event engine drives.
type EventStore interface {
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	CreateEventWithLock(ctx context.Context, ev *models.Event) error
	UpdateEventWithLock(ctx context.Context, ev *models.Event) error
	DeleteEvent(ctx context.Context, id int64) error
	DeleteChildEvents(ctx context.Context, parentID int64) (int64, error)
	ChildEvents(ctx context.Context, parentID int64) ([]models.Event, error)
	ListEvents(ctx context.Context, filter models.EventFilter) (*models.EventPage, error)

	GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error)
	GetOffice(ctx context.Context, id int64) (*models.Office, error)
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
}

// Notifier arms and disarms the delayed notification tasks for an event.
type Notifier interface {
	ScheduleEvent(ctx context.Context, ev *models.Event) error
	CancelEvent(ctx context.Context, eventID int64) error
}

// EventService is the scheduling engine. Incoming times are the office's
// local wall clock; they are shifted to UTC before storage and conflict
// checks, so all rooms compare on one clock.
type EventService struct {
	store    EventStore
	notifier Notifier
	bus      *bus.Bus
	logger   zerolog.Logger
}

// NewEventService creates the scheduling engine.
func NewEventService(store EventStore, notifier Notifier, b *bus.Bus, logger zerolog.Logger) *EventService {
	return &EventService{
		store:    store,
		notifier: notifier,
		bus:      b,
		logger:   logger.With().Str("component", "event_service").Logger(),
	}
}

// CreateEventInput carries the local-time fields of a new event.
type CreateEventInput struct {
	Name        string
	Description string
	Date        time.Time
	TimeStart   models.TimeOfDay
	TimeEnd     models.TimeOfDay
	AuthorID    int64
	RoomID      int64
	EmployeeIDs []int64

	RecurrenceType     models.RecurrenceType
	RecurrenceInterval int
	RecurrenceEnd      *time.Time
}

// CreateEvent books the event, expands its recurrence rule into child
// occurrences and arms notifications. Attendee ids that do not resolve are
// dropped silently; room access is a visibility concern, not a booking gate.
func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.Name == "" {
		return nil, invalid("name", "must not be empty")
	}
	if !models.IsValidWindow(in.TimeStart, in.TimeEnd) {
		return nil, invalid("time", "start must be before end")
	}
	if in.RecurrenceType != models.RecurrenceNone {
		if !in.RecurrenceType.Valid() {
			return nil, invalid("recurrence_type", "unknown cadence")
		}
		if in.RecurrenceInterval < 1 {
			return nil, invalid("recurrence_interval", "must be at least 1")
		}
	}

	_, office, err := s.resolveRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	ev := &models.Event{
		Name:        in.Name,
		Description: in.Description,
		Date:        models.Midnight(in.Date),
		TimeStart:   in.TimeStart.ShiftHours(-office.TimeZone),
		TimeEnd:     in.TimeEnd.ShiftHours(-office.TimeZone),
		AuthorID:    in.AuthorID,
		RoomID:      in.RoomID,
		EmployeeIDs: s.resolvedAttendees(ctx, in.EmployeeIDs),

		RecurrenceType:     in.RecurrenceType,
		RecurrenceInterval: in.RecurrenceInterval,
		RecurrenceEnd:      in.RecurrenceEnd,
	}

	if err := s.store.CreateEventWithLock(ctx, ev); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("event_id", ev.ID).
		Int64("room_id", ev.RoomID).
		Str("date", ev.Date.Format("2006-01-02")).
		Msg("Event created")

	s.expandRecurrence(ctx, ev)
	s.arm(ctx, ev)
	s.bus.Publish(ctx, bus.TopicEventCreated, *ev)

	return ev, nil
}

// UpdateEventInput is a sparse patch: nil fields keep their stored value.
// TimeStart and TimeEnd travel as a pair.
type UpdateEventInput struct {
	Name        *string
	Description *string
	Date        *time.Time
	TimeStart   *models.TimeOfDay
	TimeEnd     *models.TimeOfDay
	RoomID      *int64
	EmployeeIDs *[]int64

	RecurrenceType     *models.RecurrenceType
	RecurrenceInterval *int
	RecurrenceEnd      *time.Time
	ClearRecurrenceEnd bool
}

// UpdateEvent applies the patch, re-checks conflicts, regenerates child
// occurrences and rearms notifications.
func (s *EventService) UpdateEvent(ctx context.Context, id int64, in UpdateEventInput) (*models.Event, error) {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if (in.TimeStart == nil) != (in.TimeEnd == nil) {
		return nil, invalid("time", "start and end must be updated together")
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, invalid("name", "must not be empty")
		}
		ev.Name = *in.Name
	}
	if in.Description != nil {
		ev.Description = *in.Description
	}
	if in.Date != nil {
		ev.Date = models.Midnight(*in.Date)
	}
	if in.RoomID != nil {
		ev.RoomID = *in.RoomID
	}

	_, office, err := s.resolveRoom(ctx, ev.RoomID)
	if err != nil {
		return nil, err
	}

	if in.TimeStart != nil {
		if !models.IsValidWindow(*in.TimeStart, *in.TimeEnd) {
			return nil, invalid("time", "start must be before end")
		}
		ev.TimeStart = in.TimeStart.ShiftHours(-office.TimeZone)
		ev.TimeEnd = in.TimeEnd.ShiftHours(-office.TimeZone)
	}

	if in.EmployeeIDs != nil {
		ev.EmployeeIDs = s.resolvedAttendees(ctx, *in.EmployeeIDs)
	}

	if in.RecurrenceType != nil {
		if *in.RecurrenceType != models.RecurrenceNone && !in.RecurrenceType.Valid() {
			return nil, invalid("recurrence_type", "unknown cadence")
		}
		ev.RecurrenceType = *in.RecurrenceType
	}
	if in.RecurrenceInterval != nil {
		if *in.RecurrenceInterval < 0 {
			return nil, invalid("recurrence_interval", "must not be negative")
		}
		ev.RecurrenceInterval = *in.RecurrenceInterval
	}
	if in.ClearRecurrenceEnd {
		ev.RecurrenceEnd = nil
	} else if in.RecurrenceEnd != nil {
		ev.RecurrenceEnd = in.RecurrenceEnd
	}

	if err := s.store.UpdateEventWithLock(ctx, ev); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("event_id", ev.ID).Msg("Event updated")

	// Regenerate the series from scratch: stale children carry the old
	// fields and would drift from the edited rule. Their pending tasks go
	// first so nothing lingers in the dispatcher after the rows are gone.
	if ev.RecurrenceParentID == nil {
		s.disarmChildren(ctx, ev.ID)
		if n, err := s.store.DeleteChildEvents(ctx, ev.ID); err != nil {
			s.logger.Warn().Err(err).Int64("event_id", ev.ID).Msg("Failed to drop stale occurrences")
		} else if n > 0 {
			s.logger.Debug().Int64("event_id", ev.ID).Int64("dropped", n).Msg("Stale occurrences dropped")
		}
		s.expandRecurrence(ctx, ev)
	}

	s.arm(ctx, ev)
	s.bus.Publish(ctx, bus.TopicEventUpdated, *ev)

	return ev, nil
}

// DeleteEvent removes the event, its generated occurrences and every pending
// notification task.
func (s *EventService) DeleteEvent(ctx context.Context, id int64) error {
	ev, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}

	// Children cascade at the storage layer but their pending tasks do
	// not; disarm them before the rows disappear.
	if ev.RecurrenceParentID == nil {
		s.disarmChildren(ctx, id)
	}

	if err := s.notifier.CancelEvent(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("event_id", id).Msg("Failed to disarm event")
	}

	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("event_id", id).Msg("Event deleted")
	s.bus.Publish(ctx, bus.TopicEventDeleted, *ev)
	return nil
}

// GetEvent loads one event.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns one page of events for the filter.
func (s *EventService) ListEvents(ctx context.Context, filter models.EventFilter) (*models.EventPage, error) {
	return s.store.ListEvents(ctx, filter)
}

// resolveRoom loads the room and its office, rejecting inactive rooms.
func (s *EventService) resolveRoom(ctx context.Context, roomID int64) (*models.MeetingRoom, *models.Office, error) {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve room %d: %w", roomID, err)
	}
	if room.Status != models.StatusActive {
		return nil, nil, &StateError{Reason: fmt.Sprintf("room %d is inactive", roomID)}
	}
	office, err := s.store.GetOffice(ctx, room.OfficeID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve office %d: %w", room.OfficeID, err)
	}
	return room, office, nil
}

// resolvedAttendees deduplicates the requested attendee set and drops ids
// that do not resolve to an employee. Skips are logged, not errors: a
// half-valid invite list still books the event. Room access is deliberately
// not checked here.
func (s *EventService) resolvedAttendees(ctx context.Context, requested []int64) []int64 {
	var resolved []int64
	seen := make(map[int64]struct{}, len(requested))
	for _, id := range requested {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if _, err := s.store.GetEmployee(ctx, id); err != nil {
			s.logger.Debug().Int64("employee_id", id).Msg("Attendee not found, skipping")
			continue
		}
		resolved = append(resolved, id)
	}
	return resolved
}

// disarmChildren cancels the pending notification tasks of every generated
// occurrence of the parent.
func (s *EventService) disarmChildren(ctx context.Context, parentID int64) {
	children, err := s.store.ChildEvents(ctx, parentID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("event_id", parentID).Msg("Failed to list occurrences for disarm")
	}
	for _, child := range children {
		if err := s.notifier.CancelEvent(ctx, child.ID); err != nil {
			s.logger.Warn().Err(err).Int64("event_id", child.ID).Msg("Failed to disarm occurrence")
		}
	}
}

// expandRecurrence materializes the rule into child occurrences. A child that
// collides with an existing booking is skipped with a warning; the rest of
// the series still books.
func (s *EventService) expandRecurrence(ctx context.Context, ev *models.Event) {
	if !ev.HasRecurrence() {
		return
	}
	children, err := recurrence.Expand(*ev)
	if err != nil {
		s.logger.Warn().Err(err).Int64("event_id", ev.ID).Msg("Recurrence expansion failed")
		return
	}

	for i := range children {
		child := &children[i]
		if err := s.store.CreateEventWithLock(ctx, child); err != nil {
			if conflict, ok := database.IsConflict(err); ok {
				s.logger.Warn().
					Int64("event_id", ev.ID).
					Str("date", child.Date.Format("2006-01-02")).
					Int64("conflicting_event_id", conflict.EventID).
					Msg("Occurrence collides with existing booking, skipping")
				continue
			}
			s.logger.Error().Err(err).Int64("event_id", ev.ID).Msg("Failed to store occurrence")
			continue
		}
		s.arm(ctx, child)
	}

	if len(children) > 0 {
		s.logger.Info().Int64("event_id", ev.ID).Int("occurrences", len(children)).Msg("Recurrence expanded")
	}
}

// arm replaces the event's pending notification tasks. Failures are logged;
// the booking itself already committed.
func (s *EventService) arm(ctx context.Context, ev *models.Event) {
	if err := s.notifier.ScheduleEvent(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Int64("event_id", ev.ID).Msg("Failed to arm notifications")
	}
}
