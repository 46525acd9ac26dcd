package models

// Status is the lifecycle state shared by organizations and meeting rooms.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusInactive
}

// RecurrenceType is the repeat cadence of an event.
type RecurrenceType string

const (
	RecurrenceNone  RecurrenceType = ""
	RecurrenceDay   RecurrenceType = "day"
	RecurrenceWeek  RecurrenceType = "week"
	RecurrenceMonth RecurrenceType = "month"
	RecurrenceYear  RecurrenceType = "year"
)

// Valid reports whether t is a known repeating cadence. RecurrenceNone is
// deliberately not valid: an event without recurrence carries the zero value.
func (t RecurrenceType) Valid() bool {
	switch t {
	case RecurrenceDay, RecurrenceWeek, RecurrenceMonth, RecurrenceYear:
		return true
	}
	return false
}
