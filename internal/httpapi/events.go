package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"roomly/internal/export"
	"roomly/internal/models"
	"roomly/internal/service"
)

const dateLayout = "2006-01-02"

type eventJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
	TimeStart   string  `json:"time_start"`
	TimeEnd     string  `json:"time_end"`
	AuthorID    int64   `json:"author_id"`
	RoomID      int64   `json:"room_id"`
	EmployeeIDs []int64 `json:"employee_ids"`

	RecurrenceType     string `json:"recurrence_type,omitempty"`
	RecurrenceInterval int    `json:"recurrence_interval,omitempty"`
	RecurrenceEnd      string `json:"recurrence_end,omitempty"`
	RecurrenceParentID *int64 `json:"recurrence_parent_id,omitempty"`
}

func toEventJSON(ev models.Event) eventJSON {
	out := eventJSON{
		ID:          ev.ID,
		Name:        ev.Name,
		Description: ev.Description,
		Date:        ev.Date.Format(dateLayout),
		TimeStart:   ev.TimeStart.String(),
		TimeEnd:     ev.TimeEnd.String(),
		AuthorID:    ev.AuthorID,
		RoomID:      ev.RoomID,
		EmployeeIDs: ev.EmployeeIDs,

		RecurrenceType:     string(ev.RecurrenceType),
		RecurrenceInterval: ev.RecurrenceInterval,
		RecurrenceParentID: ev.RecurrenceParentID,
	}
	if out.EmployeeIDs == nil {
		out.EmployeeIDs = []int64{}
	}
	if ev.RecurrenceEnd != nil {
		out.RecurrenceEnd = ev.RecurrenceEnd.Format(dateLayout)
	}
	return out
}

type createEventRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	TimeStart   string  `json:"time_start"`
	TimeEnd     string  `json:"time_end"`
	AuthorID    int64   `json:"author_id"`
	RoomID      int64   `json:"room_id"`
	EmployeeIDs []int64 `json:"employee_ids"`

	RecurrenceType     string `json:"recurrence_type"`
	RecurrenceInterval int    `json:"recurrence_interval"`
	RecurrenceEnd      string `json:"recurrence_end"`
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	start, err := models.ParseTimeOfDay(req.TimeStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time_start must be HH:MM")
		return
	}
	end, err := models.ParseTimeOfDay(req.TimeEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time_end must be HH:MM")
		return
	}

	in := service.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		TimeStart:   start,
		TimeEnd:     end,
		AuthorID:    req.AuthorID,
		RoomID:      req.RoomID,
		EmployeeIDs: req.EmployeeIDs,

		RecurrenceType:     models.RecurrenceType(req.RecurrenceType),
		RecurrenceInterval: req.RecurrenceInterval,
	}
	if req.RecurrenceEnd != "" {
		until, err := time.Parse(dateLayout, req.RecurrenceEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "recurrence_end must be YYYY-MM-DD")
			return
		}
		in.RecurrenceEnd = &until
	}

	ev, err := a.events.CreateEvent(r.Context(), in)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventJSON(*ev))
}

type updateEventRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Date        *string  `json:"date"`
	TimeStart   *string  `json:"time_start"`
	TimeEnd     *string  `json:"time_end"`
	RoomID      *int64   `json:"room_id"`
	EmployeeIDs *[]int64 `json:"employee_ids"`

	RecurrenceType     *string `json:"recurrence_type"`
	RecurrenceInterval *int    `json:"recurrence_interval"`
	RecurrenceEnd      *string `json:"recurrence_end"`
}

func (a *API) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	in := service.UpdateEventInput{
		Name:               req.Name,
		Description:        req.Description,
		RoomID:             req.RoomID,
		EmployeeIDs:        req.EmployeeIDs,
		RecurrenceInterval: req.RecurrenceInterval,
	}
	if req.Date != nil {
		date, err := time.Parse(dateLayout, *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		in.Date = &date
	}
	if req.TimeStart != nil {
		start, err := models.ParseTimeOfDay(*req.TimeStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "time_start must be HH:MM")
			return
		}
		in.TimeStart = &start
	}
	if req.TimeEnd != nil {
		end, err := models.ParseTimeOfDay(*req.TimeEnd)
		if err != nil {
			writeError(w, http.StatusBadRequest, "time_end must be HH:MM")
			return
		}
		in.TimeEnd = &end
	}
	if req.RecurrenceType != nil {
		rt := models.RecurrenceType(*req.RecurrenceType)
		in.RecurrenceType = &rt
	}
	if req.RecurrenceEnd != nil {
		if *req.RecurrenceEnd == "" {
			in.ClearRecurrenceEnd = true
		} else {
			until, err := time.Parse(dateLayout, *req.RecurrenceEnd)
			if err != nil {
				writeError(w, http.StatusBadRequest, "recurrence_end must be YYYY-MM-DD")
				return
			}
			in.RecurrenceEnd = &until
		}
	}

	ev, err := a.events.UpdateEvent(r.Context(), id, in)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(*ev))
}

func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ev, err := a.events.GetEvent(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventJSON(*ev))
}

func (a *API) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.events.DeleteEvent(r.Context(), id); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// eventFilter builds the listing filter from query parameters.
func eventFilter(r *http.Request) (models.EventFilter, error) {
	q := r.URL.Query()
	var filter models.EventFilter

	if v := q.Get("room_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return filter, fmt.Errorf("room_id: %w", err)
		}
		filter.RoomID = &id
	}
	if v := q.Get("office_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return filter, fmt.Errorf("office_id: %w", err)
		}
		filter.OfficeID = &id
	}
	if v := q.Get("employee_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			return filter, fmt.Errorf("employee_id: %w", err)
		}
		filter.EmployeeID = id
	}
	switch q.Get("relation") {
	case "":
	case "author":
		filter.Relation = models.RelationAuthor
	case "participant":
		filter.Relation = models.RelationParticipant
	default:
		return filter, fmt.Errorf("relation must be author or participant")
	}
	filter.Name = q.Get("name")
	if v := q.Get("date"); v != "" {
		date, err := time.Parse(dateLayout, v)
		if err != nil {
			return filter, fmt.Errorf("date must be YYYY-MM-DD")
		}
		filter.Date = &date
	}
	if v := q.Get("archived"); v != "" {
		archived := v == "true" || v == "1"
		filter.Archived = &archived
	}
	filter.DescOrder = q.Get("order") == "desc"
	if v := q.Get("page"); v != "" {
		page, err := parseID(v)
		if err != nil {
			return filter, fmt.Errorf("page: %w", err)
		}
		filter.Page = int(page)
	}
	if v := q.Get("limit"); v != "" {
		limit, err := parseID(v)
		if err != nil {
			return filter, fmt.Errorf("limit: %w", err)
		}
		filter.Limit = int(limit)
	}
	return filter, nil
}

type eventPageJSON struct {
	Events      []eventJSON `json:"events"`
	Total       int         `json:"total"`
	Page        int         `json:"page"`
	Limit       int         `json:"limit"`
	TotalPages  int         `json:"total_pages"`
	AuthorCount int         `json:"author_count"`
	MemberCount int         `json:"member_count"`
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := eventFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.events.ListEvents(r.Context(), filter)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	out := eventPageJSON{
		Events:      make([]eventJSON, 0, len(page.Events)),
		Total:       page.Total,
		Page:        page.Page,
		Limit:       page.Limit,
		TotalPages:  page.TotalPages,
		AuthorCount: page.AuthorCount,
		MemberCount: page.MemberCount,
	}
	for _, ev := range page.Events {
		out.Events = append(out.Events, toEventJSON(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

// exportMaxRows bounds a single XLSX download.
const exportMaxRows = 10000

func (a *API) exportEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := eventFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.Page = 1
	filter.Limit = exportMaxRows

	page, err := a.events.ListEvents(r.Context(), filter)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="events.xlsx"`)
	if err := export.WriteEventsXLSX(w, page.Events); err != nil {
		a.logger.Error().Err(err).Msg("Export failed")
	}
}
