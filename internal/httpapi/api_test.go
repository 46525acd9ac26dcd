package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomly/internal/bus"
	"roomly/internal/database"
	"roomly/internal/models"
	"roomly/internal/service"
)

type noopNotifier struct{}

func (noopNotifier) ScheduleEvent(context.Context, *models.Event) error { return nil }
func (noopNotifier) CancelEvent(context.Context, int64) error           { return nil }

func newTestAPI(t *testing.T) chi.Router {
	t.Helper()

	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	b := bus.New(logger)
	events := service.NewEventService(db, noopNotifier{}, b, logger)
	rooms := service.NewRoomService(db, logger)
	directory := service.NewDirectoryService(db, logger)

	return New(events, rooms, directory, logger).Router()
}

func do(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// seedOfficeTree creates organization 1, office 1 at UTC+3, a public room and
// two employees, and returns the room id.
func seedOfficeTree(t *testing.T, router chi.Router) int64 {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/api/v1/organizations",
		map[string]any{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/offices",
		map[string]any{"name": "HQ", "city": "Vladivostok", "time_zone": 3, "organization_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/v1/rooms",
		map[string]any{"name": "Aquarium", "size": 10, "is_public": true, "office_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var room roomJSON
	decode(t, rec, &room)

	for _, name := range []string{"Ann", "Bob"} {
		rec = do(t, router, http.MethodPost, "/api/v1/employees",
			map[string]any{"first_name": name, "office_id": 1})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	return room.ID
}

func TestEventLifecycle(t *testing.T) {
	router := newTestAPI(t)
	roomID := seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Planning",
		"date":       "2030-06-10",
		"time_start": "14:00",
		"time_end":   "15:00",
		"author_id":  1,
		"room_id":    roomID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created eventJSON
	decode(t, rec, &created)
	assert.Equal(t, "11:00:00", created.TimeStart, "local 14:00 at UTC+3 stores as 11:00")
	assert.Equal(t, "12:00:00", created.TimeEnd)

	// Overlapping local window in the same room collides.
	rec = do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Clash",
		"date":       "2030-06-10",
		"time_start": "13:30",
		"time_end":   "14:30",
		"author_id":  2,
		"room_id":    roomID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	// A touching window does not.
	rec = do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "After",
		"date":       "2030-06-10",
		"time_start": "15:00",
		"time_end":   "16:00",
		"author_id":  2,
		"room_id":    roomID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/events/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/events/%d", created.ID),
		map[string]any{"name": "Replanning"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated eventJSON
	decode(t, rec, &updated)
	assert.Equal(t, "Replanning", updated.Name)

	rec = do(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/events/%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/events/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEventBadInput(t *testing.T) {
	router := newTestAPI(t)
	roomID := seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Backwards",
		"date":       "2030-06-10",
		"time_start": "15:00",
		"time_end":   "14:00",
		"author_id":  1,
		"room_id":    roomID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Bad date",
		"date":       "10.06.2030",
		"time_start": "14:00",
		"time_end":   "15:00",
		"author_id":  1,
		"room_id":    roomID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecurringEventExpandsOverHTTP(t *testing.T) {
	router := newTestAPI(t)
	roomID := seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":                "Weekly sync",
		"date":                "2030-06-10",
		"time_start":          "10:00",
		"time_end":            "11:00",
		"author_id":           1,
		"room_id":             roomID,
		"recurrence_type":     "week",
		"recurrence_interval": 1,
		"recurrence_end":      "2030-06-24",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/v1/events/?limit=50", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page eventPageJSON
	decode(t, rec, &page)
	assert.Equal(t, 3, page.Total, "anchor plus two occurrences")
}

func TestListEventsFilterAndCounts(t *testing.T) {
	router := newTestAPI(t)
	roomID := seedOfficeTree(t, router)

	mkEvent := func(name, start, end string, author int64, attendees []int64) {
		body := map[string]any{
			"name": name, "date": "2030-06-10",
			"time_start": start, "time_end": end,
			"author_id": author, "room_id": roomID,
		}
		if attendees != nil {
			body["employee_ids"] = attendees
		}
		rec := do(t, router, http.MethodPost, "/api/v1/events", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	mkEvent("Morning", "09:00", "10:00", 1, []int64{2})
	mkEvent("Noon", "12:00", "13:00", 2, []int64{1})
	mkEvent("Evening", "18:00", "19:00", 2, nil)

	rec := do(t, router, http.MethodGet, "/api/v1/events/?relation=author&employee_id=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page eventPageJSON
	decode(t, rec, &page)
	assert.Equal(t, 2, page.Total, "employee 2 authored two events")
	assert.Equal(t, 2, page.AuthorCount)
	assert.Equal(t, 1, page.MemberCount, "counts ignore the relation clause itself")

	rec = do(t, router, http.MethodGet, "/api/v1/events/?name=Noon", nil)
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Total)

	rec = do(t, router, http.MethodGet, "/api/v1/events/?order=desc&limit=1", nil)
	decode(t, rec, &page)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "Evening", page.Events[0].Name)
	assert.Equal(t, 3, page.TotalPages)
}

func TestRoomAccessEndpoints(t *testing.T) {
	router := newTestAPI(t)
	seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/rooms",
		map[string]any{"name": "Vault", "size": 2, "office_id": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var room roomJSON
	decode(t, rec, &room)

	rec = do(t, router, http.MethodPost, fmt.Sprintf("/api/v1/rooms/%d/access/1", room.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%d", room.ID), nil)
	decode(t, rec, &room)
	assert.Equal(t, []int64{1}, room.EmployeeIDs)

	// The allow-list scopes visibility, not booking: an author outside it
	// still books the private room.
	rec = do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Secret",
		"date":       "2030-06-10",
		"time_start": "10:00",
		"time_end":   "11:00",
		"author_id":  2,
		"room_id":    room.ID,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Listing scoped to an employee hides private rooms they are not on.
	rec = do(t, router, http.MethodGet, "/api/v1/rooms?employee_id=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var visible []roomJSON
	decode(t, rec, &visible)
	for _, v := range visible {
		assert.NotEqual(t, room.ID, v.ID, "private room is invisible to employee 2")
	}

	rec = do(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/rooms/%d/access/1", room.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%d", room.ID), nil)
	decode(t, rec, &room)
	assert.Empty(t, room.EmployeeIDs)
}

func TestOrganizationDeactivationCascades(t *testing.T) {
	router := newTestAPI(t)
	roomID := seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPut, "/api/v1/organizations/1",
		map[string]any{"name": "Acme", "status": "inactive"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%d", roomID), nil)
	var room roomJSON
	decode(t, rec, &room)
	assert.Equal(t, "inactive", room.Status)

	// Booking in a deactivated room is rejected.
	rec = do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Too late",
		"date":       "2030-06-10",
		"time_start": "10:00",
		"time_end":   "11:00",
		"author_id":  1,
		"room_id":    roomID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPushSubscriptionEndpoints(t *testing.T) {
	router := newTestAPI(t)
	seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/employees/1/subscriptions",
		map[string]any{"endpoint": "https://push.example/abc", "p256dh_key": "k", "auth_token": "t"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub subscriptionJSON
	decode(t, rec, &sub)

	rec = do(t, router, http.MethodGet, "/api/v1/employees/1/subscriptions", nil)
	var subs []subscriptionJSON
	decode(t, rec, &subs)
	require.Len(t, subs, 1)

	rec = do(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/subscriptions/%d", sub.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/employees/1/subscriptions", nil)
	decode(t, rec, &subs)
	assert.Empty(t, subs)
}

func TestExportEvents(t *testing.T) {
	router := newTestAPI(t)
	roomID := seedOfficeTree(t, router)

	rec := do(t, router, http.MethodPost, "/api/v1/events", map[string]any{
		"name":       "Exportable",
		"date":       "2030-06-10",
		"time_start": "09:00",
		"time_end":   "10:00",
		"author_id":  1,
		"room_id":    roomID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/events/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())
}
