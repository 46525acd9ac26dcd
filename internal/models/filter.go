package models

import "time"

// Relation selects events by how the requesting employee is tied to them.
type Relation string

const (
	RelationAny         Relation = ""
	RelationAuthor      Relation = "author"
	RelationParticipant Relation = "participant"
)

// EventFilter enumerates every recognized listing option. The zero value
// matches everything; pagination defaults are applied by Normalize.
type EventFilter struct {
	RoomID     *int64
	OfficeID   *int64
	Relation   Relation
	EmployeeID int64 // the requesting employee, used by Relation and the counts
	Name       string
	Date       *time.Time
	Archived   *bool // true: before today, false: today onward
	DescOrder  bool
	Page       int
	Limit      int
}

// Normalize clamps pagination to usable values.
func (f *EventFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
}

// EventPage is one page of filtered events plus the aggregate badge counts.
// AuthorCount and MemberCount apply the same predicate as the page minus the
// relation clause, ignoring pagination.
type EventPage struct {
	Events      []Event
	Total       int
	Page        int
	Limit       int
	TotalPages  int
	AuthorCount int
	MemberCount int
}
