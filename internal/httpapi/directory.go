package httpapi

import (
	"net/http"

	"roomly/internal/models"
)

type organizationJSON struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type organizationRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	org := &models.Organization{Name: req.Name, Status: models.Status(req.Status)}
	if err := a.directory.CreateOrganization(r.Context(), org); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, organizationJSON{ID: org.ID, Name: org.Name, Status: string(org.Status)})
}

func (a *API) updateOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req organizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	org := &models.Organization{ID: id, Name: req.Name, Status: models.Status(req.Status)}
	if err := a.directory.UpdateOrganization(r.Context(), org); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, organizationJSON{ID: org.ID, Name: org.Name, Status: string(org.Status)})
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	org, err := a.directory.GetOrganization(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, organizationJSON{ID: org.ID, Name: org.Name, Status: string(org.Status)})
}

func (a *API) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.directory.DeleteOrganization(r.Context(), id); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := a.directory.ListOrganizations(r.Context())
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	out := make([]organizationJSON, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, organizationJSON{ID: org.ID, Name: org.Name, Status: string(org.Status)})
	}
	writeJSON(w, http.StatusOK, out)
}

type officeJSON struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	City           string `json:"city,omitempty"`
	TimeZone       int    `json:"time_zone"`
	OrganizationID int64  `json:"organization_id"`
}

type officeRequest struct {
	Name           string `json:"name"`
	City           string `json:"city"`
	TimeZone       int    `json:"time_zone"`
	OrganizationID int64  `json:"organization_id"`
}

func toOfficeJSON(o models.Office) officeJSON {
	return officeJSON{ID: o.ID, Name: o.Name, City: o.City, TimeZone: o.TimeZone, OrganizationID: o.OrganizationID}
}

func (a *API) createOffice(w http.ResponseWriter, r *http.Request) {
	var req officeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	office := &models.Office{Name: req.Name, City: req.City, TimeZone: req.TimeZone, OrganizationID: req.OrganizationID}
	if err := a.directory.CreateOffice(r.Context(), office); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOfficeJSON(*office))
}

func (a *API) updateOffice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req officeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	office := &models.Office{ID: id, Name: req.Name, City: req.City, TimeZone: req.TimeZone, OrganizationID: req.OrganizationID}
	if err := a.directory.UpdateOffice(r.Context(), office); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfficeJSON(*office))
}

func (a *API) getOffice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	office, err := a.directory.GetOffice(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOfficeJSON(*office))
}

func (a *API) deleteOffice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.directory.DeleteOffice(r.Context(), id); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listOffices(w http.ResponseWriter, r *http.Request) {
	var organizationID *int64
	if v := r.URL.Query().Get("organization_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid organization_id")
			return
		}
		organizationID = &id
	}
	offices, err := a.directory.ListOffices(r.Context(), organizationID)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	out := make([]officeJSON, 0, len(offices))
	for _, office := range offices {
		out = append(out, toOfficeJSON(office))
	}
	writeJSON(w, http.StatusOK, out)
}

type employeeJSON struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	OfficeID  int64  `json:"office_id"`
}

type employeeRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	OfficeID  int64  `json:"office_id"`
}

func toEmployeeJSON(e models.Employee) employeeJSON {
	return employeeJSON{ID: e.ID, FirstName: e.FirstName, LastName: e.LastName, Email: e.Email, OfficeID: e.OfficeID}
}

func (a *API) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	emp := &models.Employee{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, OfficeID: req.OfficeID}
	if err := a.directory.CreateEmployee(r.Context(), emp); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeJSON(*emp))
}

func (a *API) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req employeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	emp := &models.Employee{ID: id, FirstName: req.FirstName, LastName: req.LastName, Email: req.Email, OfficeID: req.OfficeID}
	if err := a.directory.UpdateEmployee(r.Context(), emp); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeJSON(*emp))
}

func (a *API) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	emp, err := a.directory.GetEmployee(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeJSON(*emp))
}

func (a *API) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.directory.DeleteEmployee(r.Context(), id); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listEmployees(w http.ResponseWriter, r *http.Request) {
	var officeID *int64
	if v := r.URL.Query().Get("office_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid office_id")
			return
		}
		officeID = &id
	}
	employees, err := a.directory.ListEmployees(r.Context(), officeID)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	out := make([]employeeJSON, 0, len(employees))
	for _, emp := range employees {
		out = append(out, toEmployeeJSON(emp))
	}
	writeJSON(w, http.StatusOK, out)
}

type subscriptionJSON struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee_id"`
	Endpoint   string `json:"endpoint"`
}

type subscriptionRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dh_key"`
	AuthToken string `json:"auth_token"`
}

func (a *API) subscribe(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req subscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sub := &models.PushSubscription{
		EmployeeID: employeeID,
		Endpoint:   req.Endpoint,
		P256dhKey:  req.P256dhKey,
		AuthToken:  req.AuthToken,
	}
	if err := a.directory.Subscribe(r.Context(), sub); err != nil {
		a.respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subscriptionJSON{ID: sub.ID, EmployeeID: sub.EmployeeID, Endpoint: sub.Endpoint})
}

func (a *API) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	subs, err := a.directory.Subscriptions(r.Context(), employeeID)
	if err != nil {
		a.respondServiceError(w, err)
		return
	}
	out := make([]subscriptionJSON, 0, len(subs))
	for _, sub := range subs {
		out = append(out, subscriptionJSON{ID: sub.ID, EmployeeID: sub.EmployeeID, Endpoint: sub.Endpoint})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) unsubscribe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := a.directory.Unsubscribe(r.Context(), id); err != nil {
		a.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
