package database

import (
	"context"
	"database/sql"
	"fmt"

	"roomly/internal/models"
)

const roomColumns = `id, name, description, calendar_code, size, status, is_public, office_id`

func scanRoom(row rowScanner) (*models.MeetingRoom, error) {
	var r models.MeetingRoom
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CalendarCode,
		&r.Size, &r.Status, &r.IsPublic, &r.OfficeID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRoom loads a meeting room with its access allow-list.
func (db *DB) GetRoom(ctx context.Context, id int64) (*models.MeetingRoom, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM meeting_rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room: %w", err)
	}
	if room.EmployeeIDs, err = db.roomAccessList(ctx, room.ID); err != nil {
		return nil, err
	}
	return room, nil
}

func (db *DB) roomAccessList(ctx context.Context, roomID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT employee_id FROM meeting_room_access WHERE room_id = ? ORDER BY employee_id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("room access list: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateRoom inserts the room and its allow-list.
func (db *DB) CreateRoom(ctx context.Context, room *models.MeetingRoom) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO meeting_rooms
		(name, description, calendar_code, size, status, is_public, office_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.Name, room.Description, room.CalendarCode, room.Size,
		string(room.Status), room.IsPublic, room.OfficeID)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	if room.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if err := replaceRoomAccess(ctx, tx, room.ID, room.EmployeeIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateRoom rewrites the room row and its allow-list.
func (db *DB) UpdateRoom(ctx context.Context, room *models.MeetingRoom) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE meeting_rooms SET
		name = ?, description = ?, calendar_code = ?, size = ?, status = ?, is_public = ?, office_id = ?
		WHERE id = ?`,
		room.Name, room.Description, room.CalendarCode, room.Size,
		string(room.Status), room.IsPublic, room.OfficeID, room.ID)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := replaceRoomAccess(ctx, tx, room.ID, room.EmployeeIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceRoomAccess(ctx context.Context, tx *sql.Tx, roomID int64, employeeIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meeting_room_access WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("clear room access: %w", err)
	}
	for _, id := range employeeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO meeting_room_access (room_id, employee_id) VALUES (?, ?)`,
			roomID, id); err != nil {
			return fmt.Errorf("insert room access %d: %w", id, err)
		}
	}
	return nil
}

// DeleteRoom removes the room; its events and access rows cascade.
func (db *DB) DeleteRoom(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM meeting_rooms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRooms returns rooms, optionally scoped to one office.
func (db *DB) ListRooms(ctx context.Context, officeID *int64) ([]models.MeetingRoom, error) {
	query := `SELECT ` + roomColumns + ` FROM meeting_rooms`
	var args []any
	if officeID != nil {
		query += ` WHERE office_id = ?`
		args = append(args, *officeID)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.MeetingRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rooms {
		ids, err := db.roomAccessList(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
		rooms[i].EmployeeIDs = ids
	}
	return rooms, nil
}

// DeactivateRoomsByOrganization flips every room under the organization's
// offices to inactive. Fired when an organization is deactivated.
func (db *DB) DeactivateRoomsByOrganization(ctx context.Context, organizationID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `UPDATE meeting_rooms SET status = ?
		WHERE office_id IN (SELECT id FROM offices WHERE organization_id = ?)`,
		string(models.StatusInactive), organizationID)
	if err != nil {
		return 0, fmt.Errorf("deactivate rooms: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
