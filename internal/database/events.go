package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"roomly/internal/models"
)

const eventColumns = `id, name, description, date, time_start, time_end,
	author_id, room_id, recurrence_type, recurrence_interval, recurrence_end, recurrence_parent_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		ev            models.Event
		date          string
		timeStart     string
		timeEnd       string
		recurrenceEnd sql.NullString
		parentID      sql.NullInt64
	)
	err := row.Scan(&ev.ID, &ev.Name, &ev.Description, &date, &timeStart, &timeEnd,
		&ev.AuthorID, &ev.RoomID, &ev.RecurrenceType, &ev.RecurrenceInterval,
		&recurrenceEnd, &parentID)
	if err != nil {
		return nil, err
	}

	if ev.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("event %d date: %w", ev.ID, err)
	}
	if ev.TimeStart, err = models.ParseTimeOfDay(timeStart); err != nil {
		return nil, fmt.Errorf("event %d time_start: %w", ev.ID, err)
	}
	if ev.TimeEnd, err = models.ParseTimeOfDay(timeEnd); err != nil {
		return nil, fmt.Errorf("event %d time_end: %w", ev.ID, err)
	}
	if recurrenceEnd.Valid {
		end, err := parseDate(recurrenceEnd.String)
		if err != nil {
			return nil, fmt.Errorf("event %d recurrence_end: %w", ev.ID, err)
		}
		ev.RecurrenceEnd = &end
	}
	if parentID.Valid {
		id := parentID.Int64
		ev.RecurrenceParentID = &id
	}
	return &ev, nil
}

// GetEvent loads one event with its attendee set.
func (db *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if ev.EmployeeIDs, err = db.eventAttendees(ctx, db.DB, ev.ID); err != nil {
		return nil, err
	}
	return ev, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) eventAttendees(ctx context.Context, q querier, eventID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT employee_id FROM event_attendees WHERE event_id = ? ORDER BY employee_id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("event attendees: %w", err)
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

// GetConflictingEvents returns events in the room on the date whose half-open
// time windows intersect [start, end). excludeID, when non-zero, drops the
// event being updated from the candidate set.
func (db *DB) GetConflictingEvents(ctx context.Context, roomID int64, date time.Time, start, end models.TimeOfDay, excludeID int64) ([]models.Event, error) {
	return conflictingEvents(ctx, db.DB, roomID, date, start, end, excludeID)
}

func conflictingEvents(ctx context.Context, q querier, roomID int64, date time.Time, start, end models.TimeOfDay, excludeID int64) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE room_id = ? AND date = ? AND time_start < ? AND time_end > ?`
	args := []any{roomID, fmtDate(date), end.String(), start.String()}
	if excludeID != 0 {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conflict query: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// CreateEventWithLock inserts the event after re-checking for conflicts inside
// a write transaction, so two concurrent creates for the same room cannot both
// pass the check. Returns a ConflictError naming the colliding event.
func (db *DB) CreateEventWithLock(ctx context.Context, ev *models.Event) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := checkConflict(ctx, tx, ev, 0); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO events
		(name, description, date, time_start, time_end, author_id, room_id,
		 recurrence_type, recurrence_interval, recurrence_end, recurrence_parent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Name, ev.Description, fmtDate(ev.Date), ev.TimeStart.String(), ev.TimeEnd.String(),
		ev.AuthorID, ev.RoomID, string(ev.RecurrenceType), ev.RecurrenceInterval,
		nullDate(ev.RecurrenceEnd), ev.RecurrenceParentID)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	if err := replaceAttendees(ctx, tx, ev.ID, ev.EmployeeIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateEventWithLock rewrites the event row and its attendee set after
// re-checking for conflicts, excluding the event itself from the check.
func (db *DB) UpdateEventWithLock(ctx context.Context, ev *models.Event) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := checkConflict(ctx, tx, ev, ev.ID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `UPDATE events SET
		name = ?, description = ?, date = ?, time_start = ?, time_end = ?,
		author_id = ?, room_id = ?, recurrence_type = ?, recurrence_interval = ?, recurrence_end = ?
		WHERE id = ?`,
		ev.Name, ev.Description, fmtDate(ev.Date), ev.TimeStart.String(), ev.TimeEnd.String(),
		ev.AuthorID, ev.RoomID, string(ev.RecurrenceType), ev.RecurrenceInterval,
		nullDate(ev.RecurrenceEnd), ev.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := replaceAttendees(ctx, tx, ev.ID, ev.EmployeeIDs); err != nil {
		return err
	}
	return tx.Commit()
}

func checkConflict(ctx context.Context, tx *sql.Tx, ev *models.Event, excludeID int64) error {
	conflicts, err := conflictingEvents(ctx, tx, ev.RoomID, ev.Date, ev.TimeStart, ev.TimeEnd, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{EventID: conflicts[0].ID, Name: conflicts[0].Name}
	}
	return nil
}

func replaceAttendees(ctx context.Context, tx *sql.Tx, eventID int64, employeeIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM event_attendees WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear attendees: %w", err)
	}
	for _, id := range employeeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO event_attendees (event_id, employee_id) VALUES (?, ?)`,
			eventID, id); err != nil {
			return fmt.Errorf("insert attendee %d: %w", id, err)
		}
	}
	return nil
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtDate(*t)
}

// DeleteEvent removes the event row; attendee links and recurrence children
// cascade at the storage layer.
func (db *DB) DeleteEvent(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChildEvents removes every occurrence generated from the given parent.
// Used before re-expanding an edited recurrence rule.
func (db *DB) DeleteChildEvents(ctx context.Context, parentID int64) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM events WHERE recurrence_parent_id = ?`, parentID)
	if err != nil {
		return 0, fmt.Errorf("delete child events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ChildEvents returns the occurrences generated from the given parent.
func (db *DB) ChildEvents(ctx context.Context, parentID int64) ([]models.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE recurrence_parent_id = ? ORDER BY date`, parentID)
	if err != nil {
		return nil, fmt.Errorf("child events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// ListEvents returns one page of events matching the filter together with the
// aggregate counts. The author/member counts apply every predicate except the
// relation clause, so a "participant" listing still reports how many of the
// otherwise-matching events the user authored.
func (db *DB) ListEvents(ctx context.Context, filter models.EventFilter) (*models.EventPage, error) {
	filter.Normalize()

	base := []string{}
	args := []any{}

	if filter.RoomID != nil {
		base = append(base, "e.room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.OfficeID != nil {
		base = append(base, "e.room_id IN (SELECT id FROM meeting_rooms WHERE office_id = ?)")
		args = append(args, *filter.OfficeID)
	}
	if filter.Name != "" {
		base = append(base, "e.name LIKE '%' || ? || '%'")
		args = append(args, filter.Name)
	}
	if filter.Date != nil {
		base = append(base, "e.date = ?")
		args = append(args, fmtDate(*filter.Date))
	}
	if filter.Archived != nil {
		today := fmtDate(models.Midnight(time.Now()))
		if *filter.Archived {
			base = append(base, "e.date < ?")
		} else {
			base = append(base, "e.date >= ?")
		}
		args = append(args, today)
	}

	authorClause := "e.author_id = ?"
	memberClause := "EXISTS (SELECT 1 FROM event_attendees ea WHERE ea.event_id = e.id AND ea.employee_id = ?)"

	full := append([]string{}, base...)
	fullArgs := append([]any{}, args...)
	switch filter.Relation {
	case models.RelationAuthor:
		full = append(full, authorClause)
		fullArgs = append(fullArgs, filter.EmployeeID)
	case models.RelationParticipant:
		full = append(full, memberClause)
		fullArgs = append(fullArgs, filter.EmployeeID)
	}

	where := func(conds []string) string {
		if len(conds) == 0 {
			return ""
		}
		return " WHERE " + strings.Join(conds, " AND ")
	}

	page := &models.EventPage{Page: filter.Page, Limit: filter.Limit}

	row := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+where(full), fullArgs...)
	if err := row.Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	page.TotalPages = (page.Total + filter.Limit - 1) / filter.Limit

	if filter.EmployeeID != 0 {
		authorConds := append(append([]string{}, base...), authorClause)
		authorArgs := append(append([]any{}, args...), filter.EmployeeID)
		row = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+where(authorConds), authorArgs...)
		if err := row.Scan(&page.AuthorCount); err != nil {
			return nil, fmt.Errorf("count author events: %w", err)
		}

		memberConds := append(append([]string{}, base...), memberClause)
		memberArgs := append(append([]any{}, args...), filter.EmployeeID)
		row = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events e`+where(memberConds), memberArgs...)
		if err := row.Scan(&page.MemberCount); err != nil {
			return nil, fmt.Errorf("count member events: %w", err)
		}
	}

	order := " ORDER BY e.date ASC, e.time_start ASC"
	if filter.DescOrder {
		order = " ORDER BY e.date DESC, e.time_start DESC"
	}
	query := `SELECT ` + eventColumns + ` FROM events e` +
		where(full) + order + ` LIMIT ? OFFSET ?`
	queryArgs := append(append([]any{}, fullArgs...), filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		page.Events = append(page.Events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range page.Events {
		ids, err := db.eventAttendees(ctx, db.DB, page.Events[i].ID)
		if err != nil {
			return nil, err
		}
		page.Events[i].EmployeeIDs = ids
	}
	return page, nil
}

// GetEventsByDate returns every event on the given calendar day.
func (db *DB) GetEventsByDate(ctx context.Context, date time.Time) ([]models.Event, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE date = ? ORDER BY time_start`, fmtDate(date))
	if err != nil {
		return nil, fmt.Errorf("events by date: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}
