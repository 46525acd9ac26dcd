package service

import (
	"context"

	"github.com/rs/zerolog"

	"roomly/internal/models"
)

// RoomStore is the storage surface for meeting room management.
type RoomStore interface {
	GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error)
	CreateRoom(ctx context.Context, room *models.MeetingRoom) error
	UpdateRoom(ctx context.Context, room *models.MeetingRoom) error
	DeleteRoom(ctx context.Context, id int64) error
	ListRooms(ctx context.Context, officeID *int64) ([]models.MeetingRoom, error)
	GetOffice(ctx context.Context, id int64) (*models.Office, error)
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
}

// RoomService manages meeting rooms and their access lists.
type RoomService struct {
	store  RoomStore
	logger zerolog.Logger
}

// NewRoomService creates a room service.
func NewRoomService(store RoomStore, logger zerolog.Logger) *RoomService {
	return &RoomService{
		store:  store,
		logger: logger.With().Str("component", "room_service").Logger(),
	}
}

func (s *RoomService) validate(ctx context.Context, room *models.MeetingRoom) error {
	if room.Name == "" {
		return invalid("name", "must not be empty")
	}
	if !room.ValidSize() {
		return invalid("size", "must be between 1 and 100")
	}
	if !models.ValidStatus(room.Status) {
		return invalid("status", "unknown status")
	}
	if _, err := s.store.GetOffice(ctx, room.OfficeID); err != nil {
		return err
	}
	if !room.IsPublic && len(room.EmployeeIDs) > room.Size {
		return invalid("employee_ids", "allow-list larger than room capacity")
	}
	return nil
}

// CreateRoom stores a new room after validating its capacity, status and
// office.
func (s *RoomService) CreateRoom(ctx context.Context, room *models.MeetingRoom) error {
	if room.Status == "" {
		room.Status = models.StatusActive
	}
	if err := s.validate(ctx, room); err != nil {
		return err
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Str("name", room.Name).Msg("Room created")
	return nil
}

// UpdateRoom rewrites the room and its allow-list.
func (s *RoomService) UpdateRoom(ctx context.Context, room *models.MeetingRoom) error {
	if err := s.validate(ctx, room); err != nil {
		return err
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", room.ID).Msg("Room updated")
	return nil
}

// DeleteRoom removes the room.
func (s *RoomService) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.store.DeleteRoom(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("room_id", id).Msg("Room deleted")
	return nil
}

// GetRoom loads one room with its allow-list.
func (s *RoomService) GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	return s.store.GetRoom(ctx, id)
}

// ListRooms returns rooms, optionally scoped to one office. When accessibleTo
// is set, private rooms whose allow-list excludes that employee are hidden.
func (s *RoomService) ListRooms(ctx context.Context, officeID, accessibleTo *int64) ([]models.MeetingRoom, error) {
	rooms, err := s.store.ListRooms(ctx, officeID)
	if err != nil {
		return nil, err
	}
	if accessibleTo == nil {
		return rooms, nil
	}
	visible := rooms[:0]
	for _, room := range rooms {
		if room.CanAccess(*accessibleTo) {
			visible = append(visible, room)
		}
	}
	return visible, nil
}

// GrantAccess puts the employee on the room's allow-list.
func (s *RoomService) GrantAccess(ctx context.Context, roomID, employeeID int64) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return err
	}
	if !room.AddEmployee(employeeID) {
		// The list has no access effect on a public room, and a duplicate
		// grant changes nothing; both succeed without a write.
		if room.IsPublic || room.HasEmployee(employeeID) {
			return nil
		}
		return &StateError{Reason: "allow-list is at room capacity"}
	}
	return s.store.UpdateRoom(ctx, room)
}

// RevokeAccess drops the employee from the room's allow-list.
func (s *RoomService) RevokeAccess(ctx context.Context, roomID, employeeID int64) error {
	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	room.RemoveEmployee(employeeID)
	return s.store.UpdateRoom(ctx, room)
}
