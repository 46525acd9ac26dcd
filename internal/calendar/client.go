package calendar

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client pushes ICS documents to a WebDAV-style calendar server. Each room's
// calendar is a collection named by its calendar code; events are resources
// inside it.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	logger   zerolog.Logger
}

// NewClient creates a calendar client for the given server.
func NewClient(baseURL, username, password string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger.With().Str("component", "calendar").Logger(),
	}
}

func (c *Client) resourceURL(calendarCode string, eventID int64) string {
	return fmt.Sprintf("%s/%s/%s.ics", c.baseURL, calendarCode, EventUID(eventID))
}

// PutEvent uploads (or replaces) the event's ICS document in the room
// calendar.
func (c *Client) PutEvent(ctx context.Context, calendarCode string, eventID int64, ics string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.resourceURL(calendarCode, eventID), strings.NewReader(ics))
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("put calendar event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("calendar server returned %d for %s", resp.StatusCode, req.URL.Path)
	}

	c.logger.Debug().
		Str("calendar", calendarCode).
		Int64("event_id", eventID).
		Msg("Calendar event uploaded")
	return nil
}

// DeleteEvent removes the event's resource from the room calendar. A 404 is
// treated as success since the resource is already gone.
func (c *Client) DeleteEvent(ctx context.Context, calendarCode string, eventID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.resourceURL(calendarCode, eventID), nil)
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("calendar server returned %d for %s", resp.StatusCode, req.URL.Path)
	}

	c.logger.Debug().
		Str("calendar", calendarCode).
		Int64("event_id", eventID).
		Msg("Calendar event removed")
	return nil
}
