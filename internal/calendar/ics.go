// Package calendar mirrors events into per-room calendars over a WebDAV-style
// HTTP interface. Each event becomes a single VEVENT; recurring events carry
// their rule as an RRULE instead of being expanded, so the calendar server
// renders the series itself.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"roomly/internal/models"
)

// EventUID is the stable VEVENT identifier for an event.
func EventUID(eventID int64) string {
	return fmt.Sprintf("event_%d", eventID)
}

// BuildICS renders the event as an iCalendar document. The room supplies the
// LOCATION line.
func BuildICS(ev models.Event, roomName string) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//roomly//booking//EN")

	ve := cal.AddEvent(EventUID(ev.ID))
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetStartAt(ev.StartAt())
	ve.SetEndAt(ev.EndAt())
	ve.SetSummary(ev.Name)
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if roomName != "" {
		ve.SetLocation(roomName)
	}

	if ev.HasRecurrence() && ev.RecurrenceParentID == nil {
		rule, err := rruleString(ev)
		if err != nil {
			return "", err
		}
		ve.AddRrule(rule)
	}

	return cal.Serialize(), nil
}

// rruleString maps the stored recurrence fields onto an RFC 5545 RRULE line.
func rruleString(ev models.Event) (string, error) {
	var freq string
	switch ev.RecurrenceType {
	case models.RecurrenceDay:
		freq = "DAILY"
	case models.RecurrenceWeek:
		freq = "WEEKLY"
	case models.RecurrenceMonth:
		freq = "MONTHLY"
	case models.RecurrenceYear:
		freq = "YEARLY"
	default:
		return "", fmt.Errorf("unknown recurrence type %q", ev.RecurrenceType)
	}

	parts := []string{"FREQ=" + freq}
	if ev.RecurrenceInterval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", ev.RecurrenceInterval))
	}
	if ev.RecurrenceEnd != nil {
		parts = append(parts, "UNTIL="+ev.RecurrenceEnd.UTC().Format("20060102T235959Z"))
	}
	return strings.Join(parts, ";"), nil
}
