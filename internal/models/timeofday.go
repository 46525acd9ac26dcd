package models

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time within a day, stored as the offset from
// midnight. Events keep their date and their start/end times of day in
// separate columns, so time arithmetic (UTC shifting, overlap checks) happens
// on this type rather than on full timestamps.
type TimeOfDay time.Duration

const day = 24 * time.Hour

// ParseTimeOfDay parses "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04:05"
	if len(s) == len("15:04") {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	d := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	return TimeOfDay(d), nil
}

// MustTimeOfDay is ParseTimeOfDay for fixtures; it panics on malformed input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d:%02d",
		int(d.Hours())%24,
		int(d.Minutes())%60,
		int(d.Seconds())%60)
}

// ShiftHours moves the wall-clock value by the given number of hours, wrapping
// across midnight. The calendar date an event is stored under is never
// adjusted by this shift; a 00:30 local start in a +3 office is stored as
// 21:30 on the same date. Conflict checks stay self-consistent because every
// event in a room shifts by the same fixed office offset.
func (t TimeOfDay) ShiftHours(hours int) TimeOfDay {
	d := (time.Duration(t) + time.Duration(hours)*time.Hour) % day
	if d < 0 {
		d += day
	}
	return TimeOfDay(d)
}

// OnDate combines the time of day with a calendar date into a UTC instant.
func (t TimeOfDay) OnDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(t))
}

// Before reports whether t is earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool { return t < u }

// IsValidWindow reports whether [start, end) is a usable same-day window.
func IsValidWindow(start, end TimeOfDay) bool {
	return start < end
}

// Midnight truncates ts to its UTC calendar day.
func Midnight(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same UTC calendar day.
func SameDate(a, b time.Time) bool {
	return Midnight(a).Equal(Midnight(b))
}
