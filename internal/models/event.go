package models

import "time"

// Event is one dated booking of a meeting room. TimeStart and TimeEnd are
// stored UTC-shifted (local wall clock minus the office offset); Date is the
// calendar day the event was entered under.
//
// A recurrence-generated occurrence carries RecurrenceParentID pointing at the
// event it was expanded from; the original occurrence leaves it nil. Children
// are independent rows: they share the parent's fields at generation time and
// can be edited or deleted on their own.
type Event struct {
	ID          int64
	Name        string
	Description string
	Date        time.Time
	TimeStart   TimeOfDay
	TimeEnd     TimeOfDay
	AuthorID    int64
	RoomID      int64
	EmployeeIDs []int64

	RecurrenceType     RecurrenceType
	RecurrenceInterval int
	RecurrenceEnd      *time.Time
	RecurrenceParentID *int64
}

// StartAt is the UTC instant the event begins.
func (e Event) StartAt() time.Time { return e.TimeStart.OnDate(e.Date) }

// EndAt is the UTC instant the event ends.
func (e Event) EndAt() time.Time { return e.TimeEnd.OnDate(e.Date) }

// HasRecurrence reports whether the event carries a well-formed repeat rule.
// The rule only expands into child occurrences when RecurrenceEnd is also set.
func (e Event) HasRecurrence() bool {
	return e.RecurrenceType.Valid() && e.RecurrenceInterval > 0
}

// HasAttendee reports whether id is in the attendee set.
func (e Event) HasAttendee(id int64) bool {
	for _, a := range e.EmployeeIDs {
		if a == id {
			return true
		}
	}
	return false
}

// Overlaps reports whether two events collide: same calendar day and
// half-open time windows that intersect. Room equality is the caller's
// concern; the conflict query already scopes to one room.
func Overlaps(a, b Event) bool {
	if !SameDate(a.Date, b.Date) {
		return false
	}
	return a.TimeStart < b.TimeEnd && a.TimeEnd > b.TimeStart
}
