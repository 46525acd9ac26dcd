// Package httpapi contains the chi HTTP handlers translating requests and
// responses to and from the service layer.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"roomly/internal/service"
)

// API holds the handler set for the booking HTTP surface.
type API struct {
	events    *service.EventService
	rooms     *service.RoomService
	directory *service.DirectoryService
	logger    zerolog.Logger
}

// New constructs the API.
func New(events *service.EventService, rooms *service.RoomService, directory *service.DirectoryService, logger zerolog.Logger) *API {
	return &API{
		events:    events,
		rooms:     rooms,
		directory: directory,
		logger:    logger.With().Str("component", "httpapi").Logger(),
	}
}

// Router builds the route tree.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", a.createEvent)
			r.Get("/", a.listEvents)
			r.Get("/export", a.exportEvents)
			r.Get("/{id}", a.getEvent)
			r.Patch("/{id}", a.updateEvent)
			r.Delete("/{id}", a.deleteEvent)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", a.createRoom)
			r.Get("/", a.listRooms)
			r.Get("/{id}", a.getRoom)
			r.Put("/{id}", a.updateRoom)
			r.Delete("/{id}", a.deleteRoom)
			r.Post("/{id}/access/{employeeID}", a.grantAccess)
			r.Delete("/{id}/access/{employeeID}", a.revokeAccess)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Post("/", a.createOrganization)
			r.Get("/", a.listOrganizations)
			r.Get("/{id}", a.getOrganization)
			r.Put("/{id}", a.updateOrganization)
			r.Delete("/{id}", a.deleteOrganization)
		})

		r.Route("/offices", func(r chi.Router) {
			r.Post("/", a.createOffice)
			r.Get("/", a.listOffices)
			r.Get("/{id}", a.getOffice)
			r.Put("/{id}", a.updateOffice)
			r.Delete("/{id}", a.deleteOffice)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Post("/", a.createEmployee)
			r.Get("/", a.listEmployees)
			r.Get("/{id}", a.getEmployee)
			r.Put("/{id}", a.updateEmployee)
			r.Delete("/{id}", a.deleteEmployee)
			r.Get("/{id}/subscriptions", a.listSubscriptions)
			r.Post("/{id}/subscriptions", a.subscribe)
		})

		r.Delete("/subscriptions/{id}", a.unsubscribe)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func (a *API) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found")
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case service.IsState(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		if conflict, ok := service.IsConflict(err); ok {
			writeError(w, http.StatusConflict, conflict.Error())
			return
		}
		a.logger.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
