package models

// Room size limits.
const (
	MinRoomSize = 1
	MaxRoomSize = 100
)

// MeetingRoom is a bookable room in an office. EmployeeIDs is the explicit
// allow-list; it only has an access effect while the room is private.
type MeetingRoom struct {
	ID           int64
	Name         string
	Description  string
	CalendarCode string
	Size         int
	Status       Status
	IsPublic     bool
	OfficeID     int64
	EmployeeIDs  []int64
}

// ValidSize reports whether the capacity is within bounds.
func (r MeetingRoom) ValidSize() bool {
	return r.Size >= MinRoomSize && r.Size <= MaxRoomSize
}

// HasEmployee reports whether id is on the allow-list.
func (r MeetingRoom) HasEmployee(id int64) bool {
	for _, e := range r.EmployeeIDs {
		if e == id {
			return true
		}
	}
	return false
}

// CanAccess reports whether the employee may book the room. Public rooms are
// open to everyone; private rooms only to the allow-list.
func (r MeetingRoom) CanAccess(employeeID int64) bool {
	return r.IsPublic || r.HasEmployee(employeeID)
}

// AddEmployee puts id on the allow-list. Adding to a public room is a no-op
// since the list has no access effect there, and a private list is bounded by
// the room capacity. Returns whether the list changed.
func (r *MeetingRoom) AddEmployee(id int64) bool {
	if r.IsPublic || r.HasEmployee(id) || len(r.EmployeeIDs) >= r.Size {
		return false
	}
	r.EmployeeIDs = append(r.EmployeeIDs, id)
	return true
}

// RemoveEmployee drops id from the allow-list.
func (r *MeetingRoom) RemoveEmployee(id int64) {
	for i, e := range r.EmployeeIDs {
		if e == id {
			r.EmployeeIDs = append(r.EmployeeIDs[:i], r.EmployeeIDs[i+1:]...)
			return
		}
	}
}
