package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Run("WithSeconds", func(t *testing.T) {
		tod, err := ParseTimeOfDay("14:30:15")
		require.NoError(t, err)
		assert.Equal(t, "14:30:15", tod.String())
	})

	t.Run("WithoutSeconds", func(t *testing.T) {
		tod, err := ParseTimeOfDay("09:05")
		require.NoError(t, err)
		assert.Equal(t, "09:05:00", tod.String())
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := ParseTimeOfDay("25:00")
		assert.Error(t, err)
	})
}

func TestShiftHours(t *testing.T) {
	t.Run("PlainShift", func(t *testing.T) {
		// 14:00 local in a +3 office stores as 11:00 UTC.
		tod := MustTimeOfDay("14:00").ShiftHours(-3)
		assert.Equal(t, "11:00:00", tod.String())
	})

	t.Run("WrapsBelowMidnight", func(t *testing.T) {
		tod := MustTimeOfDay("01:30").ShiftHours(-3)
		assert.Equal(t, "22:30:00", tod.String())
	})

	t.Run("WrapsAboveMidnight", func(t *testing.T) {
		tod := MustTimeOfDay("23:00").ShiftHours(5)
		assert.Equal(t, "04:00:00", tod.String())
	})
}

func TestIsValidWindow(t *testing.T) {
	assert.True(t, IsValidWindow(MustTimeOfDay("10:00"), MustTimeOfDay("11:00")))
	assert.False(t, IsValidWindow(MustTimeOfDay("11:00"), MustTimeOfDay("11:00")))
	assert.False(t, IsValidWindow(MustTimeOfDay("12:00"), MustTimeOfDay("11:00")))
}

func TestOverlaps(t *testing.T) {
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	mk := func(start, end string) Event {
		return Event{Date: date, TimeStart: MustTimeOfDay(start), TimeEnd: MustTimeOfDay(end)}
	}

	t.Run("ReflexivePositiveDuration", func(t *testing.T) {
		a := mk("10:00", "11:00")
		assert.True(t, Overlaps(a, a))
	})

	t.Run("Symmetric", func(t *testing.T) {
		a := mk("10:00", "11:00")
		b := mk("10:30", "11:30")
		assert.Equal(t, Overlaps(a, b), Overlaps(b, a))
		assert.True(t, Overlaps(a, b))
	})

	t.Run("TouchingWindowsDoNotOverlap", func(t *testing.T) {
		a := mk("10:00", "11:00")
		b := mk("11:00", "12:00")
		assert.False(t, Overlaps(a, b))
	})

	t.Run("DifferentDates", func(t *testing.T) {
		a := mk("10:00", "11:00")
		b := mk("10:00", "11:00")
		b.Date = date.AddDate(0, 0, 1)
		assert.False(t, Overlaps(a, b))
	})

	t.Run("OffsetOfficeScenario", func(t *testing.T) {
		// +3 office: 14:00-15:00 local stores as 11:00-12:00, a second
		// booking 13:30-14:30 local stores as 10:30-11:30 and collides.
		first := Event{
			Date:      date,
			TimeStart: MustTimeOfDay("14:00").ShiftHours(-3),
			TimeEnd:   MustTimeOfDay("15:00").ShiftHours(-3),
		}
		second := Event{
			Date:      date,
			TimeStart: MustTimeOfDay("13:30").ShiftHours(-3),
			TimeEnd:   MustTimeOfDay("14:30").ShiftHours(-3),
		}
		assert.Equal(t, "11:00:00", first.TimeStart.String())
		assert.Equal(t, "12:00:00", first.TimeEnd.String())
		assert.True(t, Overlaps(first, second))
	})
}

func TestEventInstants(t *testing.T) {
	ev := Event{
		Date:      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		TimeStart: MustTimeOfDay("11:00"),
		TimeEnd:   MustTimeOfDay("12:00"),
	}
	assert.Equal(t, time.Date(2025, 6, 10, 11, 0, 0, 0, time.UTC), ev.StartAt())
	assert.Equal(t, time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), ev.EndAt())
}

func TestMeetingRoomAllowList(t *testing.T) {
	t.Run("PrivateRoomBoundedBySize", func(t *testing.T) {
		room := MeetingRoom{Size: 2, IsPublic: false}
		assert.True(t, room.AddEmployee(1))
		assert.True(t, room.AddEmployee(2))
		assert.False(t, room.AddEmployee(3), "full room rejects new members")
		assert.Len(t, room.EmployeeIDs, 2)
	})

	t.Run("PublicRoomIgnoresList", func(t *testing.T) {
		room := MeetingRoom{Size: 5, IsPublic: true}
		assert.False(t, room.AddEmployee(1))
		assert.Empty(t, room.EmployeeIDs)
	})

	t.Run("DuplicateIsNoop", func(t *testing.T) {
		room := MeetingRoom{Size: 5}
		room.AddEmployee(1)
		assert.False(t, room.AddEmployee(1))
		assert.Len(t, room.EmployeeIDs, 1)
	})

	t.Run("Remove", func(t *testing.T) {
		room := MeetingRoom{Size: 5, EmployeeIDs: []int64{1, 2, 3}}
		room.RemoveEmployee(2)
		assert.Equal(t, []int64{1, 3}, room.EmployeeIDs)
	})
}

func TestMeetingRoomCanAccess(t *testing.T) {
	private := MeetingRoom{Size: 5, EmployeeIDs: []int64{1, 2}}
	assert.True(t, private.CanAccess(1))
	assert.False(t, private.CanAccess(3))

	public := MeetingRoom{Size: 5, IsPublic: true}
	assert.True(t, public.CanAccess(3), "public room is open to everyone")
}

func TestOfficeTimeZoneRange(t *testing.T) {
	assert.True(t, Office{TimeZone: 3}.ValidTimeZone())
	assert.True(t, Office{TimeZone: -12}.ValidTimeZone())
	assert.True(t, Office{TimeZone: 14}.ValidTimeZone())
	assert.False(t, Office{TimeZone: 15}.ValidTimeZone())
	assert.False(t, Office{TimeZone: -13}.ValidTimeZone())
}
