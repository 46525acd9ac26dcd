package httpapi

import (
	"net/http"

	"roomly/internal/models"
)

type roomJSON struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	CalendarCode string  `json:"calendar_code,omitempty"`
	Size         int     `json:"size"`
	Status       string  `json:"status"`
	IsPublic     bool    `json:"is_public"`
	OfficeID     int64   `json:"office_id"`
	EmployeeIDs  []int64 `json:"employee_ids"`
}

func toRoomJSON(room models.MeetingRoom) roomJSON {
	out := roomJSON{
		ID:           room.ID,
		Name:         room.Name,
		Description:  room.Description,
		CalendarCode: room.CalendarCode,
		Size:         room.Size,
		Status:       string(room.Status),
		IsPublic:     room.IsPublic,
		OfficeID:     room.OfficeID,
		EmployeeIDs:  room.EmployeeIDs,
	}
	if out.EmployeeIDs == nil {
		out.EmployeeIDs = []int64{}
	}
	return out
}

type roomRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	CalendarCode string  `json:"calendar_code"`
	Size         int     `json:"size"`
	Status       string  `json:"status"`
	IsPublic     bool    `json:"is_public"`
	OfficeID     int64   `json:"office_id"`
	EmployeeIDs  []int64 `json:"employee_ids"`
}

func (req roomRequest) toModel(id int64) *models.MeetingRoom {
	return &models.MeetingRoom{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		CalendarCode: req.CalendarCode,
		Size:         req.Size,
		Status:       models.Status(req.Status),
		IsPublic:     req.IsPublic,
		OfficeID:     req.OfficeID,
		EmployeeIDs:  req.EmployeeIDs,
	}
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	room := req.toModel(0)
	if err := a.rooms.CreateRoom(r.Context(), room); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomJSON(*room))
}

func (a *API) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	room := req.toModel(id)
	if err := a.rooms.UpdateRoom(r.Context(), room); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomJSON(*room))
}

func (a *API) getRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	room, err := a.rooms.GetRoom(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomJSON(*room))
}

func (a *API) deleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.rooms.DeleteRoom(r.Context(), id); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	var officeID, accessibleTo *int64
	if v := r.URL.Query().Get("office_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid office_id")
			return
		}
		officeID = &id
	}
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid employee_id")
			return
		}
		accessibleTo = &id
	}
	rooms, err := a.rooms.ListRooms(r.Context(), officeID, accessibleTo)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	out := make([]roomJSON, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomJSON(room))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) grantAccess(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	employeeID, err := pathID(r, "employeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	if err := a.rooms.GrantAccess(r.Context(), roomID, employeeID); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) revokeAccess(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	employeeID, err := pathID(r, "employeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	if err := a.rooms.RevokeAccess(r.Context(), roomID, employeeID); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
