// Package recurrence expands an event's repeat rule into the bounded set of
// child occurrences.
package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"roomly/internal/models"
)

// maxOccurrences caps a single expansion so a distant end date cannot fan out
// into an unbounded insert storm.
const maxOccurrences = 1000

// ErrInvalidRule indicates the anchor carries an unknown cadence or a
// non-positive interval.
var ErrInvalidRule = errors.New("recurrence: invalid rule")

var frequencies = map[models.RecurrenceType]rrule.Frequency{
	models.RecurrenceDay:   rrule.DAILY,
	models.RecurrenceWeek:  rrule.WEEKLY,
	models.RecurrenceMonth: rrule.MONTHLY,
	models.RecurrenceYear:  rrule.YEARLY,
}

// Expand returns the child occurrences generated by the anchor's recurrence
// rule: one event per stepped date strictly after the anchor's date and no
// later than the rule's end date, each copying the anchor's fields via
// Materialize. Pure: the same anchor always yields the same children.
//
// Without an end date the rule is recorded on the anchor but never expanded,
// so a missing RecurrenceEnd yields no children and no error.
func Expand(anchor models.Event) ([]models.Event, error) {
	if !anchor.RecurrenceType.Valid() || anchor.RecurrenceInterval <= 0 {
		return nil, ErrInvalidRule
	}
	if anchor.RecurrenceEnd == nil {
		return nil, nil
	}

	start := models.Midnight(anchor.Date)
	until := models.Midnight(*anchor.RecurrenceEnd)
	if !until.After(start) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     frequencies[anchor.RecurrenceType],
		Interval: anchor.RecurrenceInterval,
		Dtstart:  start,
		Until:    until,
	})
	if err != nil {
		return nil, err
	}

	// inc=true keeps dates equal to the until bound; the anchor's own date is
	// excluded by starting the range one day later.
	dates := rule.Between(start.AddDate(0, 0, 1), until, true)
	if len(dates) > maxOccurrences {
		dates = dates[:maxOccurrences]
	}

	children := make([]models.Event, 0, len(dates))
	for _, d := range dates {
		children = append(children, Materialize(anchor, d))
	}
	return children, nil
}

// Materialize builds one child occurrence of anchor on the given date. The
// copy contract is explicit: name, description, time window, author, room and
// attendee set carry over; the recurrence rule itself does not, and the child
// points back at the anchor through RecurrenceParentID.
func Materialize(anchor models.Event, date time.Time) models.Event {
	parentID := anchor.ID
	return models.Event{
		Name:               anchor.Name,
		Description:        anchor.Description,
		Date:               models.Midnight(date),
		TimeStart:          anchor.TimeStart,
		TimeEnd:            anchor.TimeEnd,
		AuthorID:           anchor.AuthorID,
		RoomID:             anchor.RoomID,
		EmployeeIDs:        append([]int64(nil), anchor.EmployeeIDs...),
		RecurrenceParentID: &parentID,
	}
}
