// Package database is the SQLite persistence layer for the booking domain.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the SQLite connection pool.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ConflictError is returned when a check-then-insert finds an overlapping
// event in the same room on the same date.
type ConflictError struct {
	EventID int64
	Name    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with event %d (%s)", e.EventID, e.Name)
}

// IsConflict reports whether err is a booking conflict.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// NewDB opens (creating if needed) the database at path and runs migrations.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode and a busy timeout keep concurrent create/update requests
	// serialized instead of erroring out. _txlock=immediate makes BeginTx
	// take the write lock up front, so the conflict check and the insert it
	// guards run atomically with respect to other writers.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS organizations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE TABLE IF NOT EXISTS offices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			time_zone INTEGER NOT NULL DEFAULT 0,
			organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS employees (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			email TEXT UNIQUE NOT NULL,
			office_id INTEGER NOT NULL REFERENCES offices(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS push_subscriptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			endpoint TEXT NOT NULL,
			p256dh_key TEXT NOT NULL DEFAULT '',
			auth_token TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_rooms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			calendar_code TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			is_public BOOLEAN NOT NULL DEFAULT 1,
			office_id INTEGER NOT NULL REFERENCES offices(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS meeting_room_access (
			room_id INTEGER NOT NULL REFERENCES meeting_rooms(id) ON DELETE CASCADE,
			employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			PRIMARY KEY (room_id, employee_id)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time_start TEXT NOT NULL,
			time_end TEXT NOT NULL,
			author_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			room_id INTEGER NOT NULL REFERENCES meeting_rooms(id) ON DELETE CASCADE,
			recurrence_type TEXT NOT NULL DEFAULT '',
			recurrence_interval INTEGER NOT NULL DEFAULT 0,
			recurrence_end TEXT,
			recurrence_parent_id INTEGER REFERENCES events(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS event_attendees (
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			PRIMARY KEY (event_id, employee_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_room_date ON events(room_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_events_parent ON events(recurrence_parent_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migration %q: %w", q[:40], err)
		}
	}
	return nil
}

const (
	dateLayout = "2006-01-02"
)

func fmtDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
