// Package models defines the booking domain entities and the pure time and
// conflict arithmetic they share.
package models

// Organization groups offices. Deactivating an organization deactivates every
// meeting room under its offices.
type Organization struct {
	ID     int64
	Name   string
	Status Status
}

// Office is a physical location. TimeZone is the integer hour offset from UTC
// in which all events booked in the office's rooms are entered.
type Office struct {
	ID             int64
	Name           string
	City           string
	TimeZone       int
	OrganizationID int64
}

// MinTimeZone and MaxTimeZone bound the accepted office offsets.
const (
	MinTimeZone = -12
	MaxTimeZone = 14
)

// ValidTimeZone reports whether the office offset is within the UTC range.
func (o Office) ValidTimeZone() bool {
	return o.TimeZone >= MinTimeZone && o.TimeZone <= MaxTimeZone
}

// Employee is a bookable attendee and potential event author.
type Employee struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	OfficeID  int64
}

// FullName renders the display name used in notifications.
func (e Employee) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// PushSubscription is one registered web-push endpoint of an employee.
type PushSubscription struct {
	ID         int64
	EmployeeID int64
	Endpoint   string
	P256dhKey  string
	AuthToken  string
}
