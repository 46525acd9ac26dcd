package notify

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomly/internal/database"
	"roomly/internal/dispatch"
	"roomly/internal/models"
)

type fakeDispatcher struct {
	scheduled []dispatch.Task
	cancelled []int64
}

func (f *fakeDispatcher) Schedule(_ context.Context, task dispatch.Task) error {
	f.scheduled = append(f.scheduled, task)
	return nil
}

func (f *fakeDispatcher) CancelEvent(_ context.Context, eventID int64) error {
	f.cancelled = append(f.cancelled, eventID)
	return nil
}

func futureEvent(id int64, start time.Time, duration time.Duration) *models.Event {
	startOfDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return &models.Event{
		ID:        id,
		Name:      "Sprint planning",
		Date:      startOfDay,
		TimeStart: models.TimeOfDay(start.Sub(startOfDay)),
		TimeEnd:   models.TimeOfDay(start.Add(duration).Sub(startOfDay)),
		AuthorID:  1,
		RoomID:    1,
	}
}

func TestScheduleEventArmsRemindersAndSummary(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewScheduler(d, []int{60, 10}, nil, zerolog.New(io.Discard))

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ev := futureEvent(42, now.Add(3*time.Hour), time.Hour)
	require.NoError(t, s.ScheduleEvent(context.Background(), ev))

	assert.Equal(t, []int64{42}, d.cancelled, "pending set cleared before arming")
	require.Len(t, d.scheduled, 3)

	assert.Equal(t, dispatch.KindReminder, d.scheduled[0].Kind)
	assert.Equal(t, 60, d.scheduled[0].LeadMinutes)
	assert.Equal(t, ev.StartAt().Add(-time.Hour), d.scheduled[0].FireAt)

	assert.Equal(t, 10, d.scheduled[1].LeadMinutes)

	assert.Equal(t, dispatch.KindSummary, d.scheduled[2].Kind)
	assert.Equal(t, ev.EndAt(), d.scheduled[2].FireAt)
}

func TestScheduleEventSkipsPastDueLeads(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewScheduler(d, []int{60, 10}, nil, zerolog.New(io.Discard))

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Starts in 30 minutes: the 60-minute reminder is already in the past.
	ev := futureEvent(7, now.Add(30*time.Minute), time.Hour)
	require.NoError(t, s.ScheduleEvent(context.Background(), ev))

	require.Len(t, d.scheduled, 2)
	assert.Equal(t, 10, d.scheduled[0].LeadMinutes)
	assert.Equal(t, dispatch.KindSummary, d.scheduled[1].Kind)
}

func TestScheduleEventInPastArmsNothing(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewScheduler(d, []int{60, 10}, nil, zerolog.New(io.Discard))

	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ev := futureEvent(9, now.Add(-5*time.Hour), time.Hour)
	require.NoError(t, s.ScheduleEvent(context.Background(), ev))

	assert.Equal(t, []int64{9}, d.cancelled)
	assert.Empty(t, d.scheduled)
}

func TestScheduleEventRearmReplacesTasks(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewScheduler(d, []int{10}, nil, zerolog.New(io.Discard))

	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ev := futureEvent(5, now.Add(2*time.Hour), time.Hour)
	require.NoError(t, s.ScheduleEvent(context.Background(), ev))
	require.NoError(t, s.ScheduleEvent(context.Background(), ev))

	assert.Equal(t, []int64{5, 5}, d.cancelled, "every arm starts with a cancel")
	assert.Len(t, d.scheduled, 4)
}

type fakeStore struct {
	events    map[int64]*models.Event
	employees map[int64]*models.Employee
	rooms     map[int64]*models.MeetingRoom
	subs      map[int64][]models.PushSubscription
}

func (f *fakeStore) GetEvent(_ context.Context, id int64) (*models.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return ev, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, id int64) (*models.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return e, nil
}

func (f *fakeStore) GetRoom(_ context.Context, id int64) (*models.MeetingRoom, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) GetPushSubscriptions(_ context.Context, employeeID int64) ([]models.PushSubscription, error) {
	return f.subs[employeeID], nil
}

type fakeMail struct {
	sent []string // recipient addresses in delivery order
	err  error
}

func (f *fakeMail) Send(_ context.Context, to, _, _ string) error {
	f.sent = append(f.sent, to)
	return f.err
}

func TestHandleDeletedEventIsNoOp(t *testing.T) {
	store := &fakeStore{events: map[int64]*models.Event{}}
	mail := &fakeMail{}
	h := NewHandler(store, mail, nil, nil, zerolog.New(io.Discard))

	h.Handle(context.Background(), dispatch.Task{EventID: 99, Kind: dispatch.KindReminder})

	assert.Empty(t, mail.sent)
}

func TestHandleFansOutToAuthorAndAttendees(t *testing.T) {
	ev := futureEvent(1, time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), time.Hour)
	ev.EmployeeIDs = []int64{1, 2, 3} // author appears in the attendee list too

	store := &fakeStore{
		events: map[int64]*models.Event{1: ev},
		employees: map[int64]*models.Employee{
			1: {ID: 1, FirstName: "Ann", Email: "ann@example.com"},
			2: {ID: 2, FirstName: "Bob", Email: "bob@example.com"},
			3: {ID: 3, FirstName: "Cid", Email: "cid@example.com"},
		},
		rooms: map[int64]*models.MeetingRoom{1: {ID: 1, Name: "Aquarium"}},
	}
	mail := &fakeMail{}
	h := NewHandler(store, mail, nil, nil, zerolog.New(io.Discard))

	h.Handle(context.Background(), dispatch.Task{EventID: 1, Kind: dispatch.KindReminder, LeadMinutes: 60})

	assert.Equal(t, []string{"ann@example.com", "bob@example.com", "cid@example.com"}, mail.sent,
		"author notified once even when listed as attendee")
}

func TestHandleMailFailureDoesNotAbortFanOut(t *testing.T) {
	ev := futureEvent(1, time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC), time.Hour)
	ev.EmployeeIDs = []int64{2}

	store := &fakeStore{
		events: map[int64]*models.Event{1: ev},
		employees: map[int64]*models.Employee{
			1: {ID: 1, Email: "ann@example.com"},
			2: {ID: 2, Email: "bob@example.com"},
		},
		rooms: map[int64]*models.MeetingRoom{1: {ID: 1, Name: "Aquarium"}},
	}
	mail := &fakeMail{err: assert.AnError}
	h := NewHandler(store, mail, nil, nil, zerolog.New(io.Discard))

	h.Handle(context.Background(), dispatch.Task{EventID: 1, Kind: dispatch.KindSummary})

	assert.Len(t, mail.sent, 2, "second recipient still attempted")
}
