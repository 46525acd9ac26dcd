package calendar

import (
	"context"

	"github.com/rs/zerolog"

	"roomly/internal/bus"
	"roomly/internal/models"
)

// Uploader is the slice of the client the sync needs. Split out so tests can
// record calls without an HTTP server.
type Uploader interface {
	PutEvent(ctx context.Context, calendarCode string, eventID int64, ics string) error
	DeleteEvent(ctx context.Context, calendarCode string, eventID int64) error
}

// RoomStore resolves the room an event belongs to.
type RoomStore interface {
	GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error)
}

// Sync subscribes to event lifecycle messages and mirrors them into room
// calendars. Sync failures are logged, never propagated: the booking itself
// must not fail because a calendar server is down.
type Sync struct {
	uploader Uploader
	rooms    RoomStore
	logger   zerolog.Logger
}

// NewSync wires a sync onto the bus and returns it.
func NewSync(b *bus.Bus, uploader Uploader, rooms RoomStore, logger zerolog.Logger) *Sync {
	s := &Sync{
		uploader: uploader,
		rooms:    rooms,
		logger:   logger.With().Str("component", "calendar_sync").Logger(),
	}
	b.Subscribe(bus.TopicEventCreated, s.upsert)
	b.Subscribe(bus.TopicEventUpdated, s.upsert)
	b.Subscribe(bus.TopicEventDeleted, s.remove)
	return s
}

func (s *Sync) upsert(ctx context.Context, msg bus.Message) {
	room, ok := s.roomFor(ctx, msg.Event)
	if !ok {
		return
	}

	ics, err := BuildICS(msg.Event, room.Name)
	if err != nil {
		s.logger.Warn().Err(err).Int64("event_id", msg.Event.ID).Msg("Failed to render calendar event")
		return
	}

	if err := s.uploader.PutEvent(ctx, room.CalendarCode, msg.Event.ID, ics); err != nil {
		s.logger.Warn().Err(err).
			Int64("event_id", msg.Event.ID).
			Str("calendar", room.CalendarCode).
			Msg("Calendar upload failed")
	}
}

func (s *Sync) remove(ctx context.Context, msg bus.Message) {
	room, ok := s.roomFor(ctx, msg.Event)
	if !ok {
		return
	}

	if err := s.uploader.DeleteEvent(ctx, room.CalendarCode, msg.Event.ID); err != nil {
		s.logger.Warn().Err(err).
			Int64("event_id", msg.Event.ID).
			Str("calendar", room.CalendarCode).
			Msg("Calendar removal failed")
	}
}

// roomFor resolves the event's room and reports whether it has a calendar to
// sync into.
func (s *Sync) roomFor(ctx context.Context, ev models.Event) (*models.MeetingRoom, bool) {
	room, err := s.rooms.GetRoom(ctx, ev.RoomID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("room_id", ev.RoomID).Msg("Failed to resolve room for calendar sync")
		return nil, false
	}
	if room.CalendarCode == "" {
		return nil, false
	}
	return room, true
}
