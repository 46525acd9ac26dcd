package service

import (
	"context"

	"github.com/rs/zerolog"

	"roomly/internal/models"
)

// DirectoryStore is the storage surface for organizations, offices, employees
// and push subscriptions.
type DirectoryStore interface {
	GetOrganization(ctx context.Context, id int64) (*models.Organization, error)
	CreateOrganization(ctx context.Context, o *models.Organization) error
	UpdateOrganization(ctx context.Context, o *models.Organization) error
	DeleteOrganization(ctx context.Context, id int64) error
	ListOrganizations(ctx context.Context) ([]models.Organization, error)
	DeactivateRoomsByOrganization(ctx context.Context, organizationID int64) (int64, error)

	GetOffice(ctx context.Context, id int64) (*models.Office, error)
	CreateOffice(ctx context.Context, o *models.Office) error
	UpdateOffice(ctx context.Context, o *models.Office) error
	DeleteOffice(ctx context.Context, id int64) error
	ListOffices(ctx context.Context, organizationID *int64) ([]models.Office, error)

	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	CreateEmployee(ctx context.Context, e *models.Employee) error
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	ListEmployees(ctx context.Context, officeID *int64) ([]models.Employee, error)

	GetPushSubscriptions(ctx context.Context, employeeID int64) ([]models.PushSubscription, error)
	CreatePushSubscription(ctx context.Context, s *models.PushSubscription) error
	DeletePushSubscription(ctx context.Context, id int64) error
}

// DirectoryService manages the organizational tree around rooms: companies,
// their offices and the employees who book.
type DirectoryService struct {
	store  DirectoryStore
	logger zerolog.Logger
}

// NewDirectoryService creates a directory service.
func NewDirectoryService(store DirectoryStore, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{
		store:  store,
		logger: logger.With().Str("component", "directory_service").Logger(),
	}
}

// CreateOrganization stores a new organization, active by default.
func (s *DirectoryService) CreateOrganization(ctx context.Context, o *models.Organization) error {
	if o.Name == "" {
		return invalid("name", "must not be empty")
	}
	if o.Status == "" {
		o.Status = models.StatusActive
	}
	if !models.ValidStatus(o.Status) {
		return invalid("status", "unknown status")
	}
	return s.store.CreateOrganization(ctx, o)
}

// UpdateOrganization rewrites the organization. Moving it to inactive
// deactivates every meeting room under its offices, so existing bookings stay
// but no new ones can be made.
func (s *DirectoryService) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	if o.Name == "" {
		return invalid("name", "must not be empty")
	}
	if !models.ValidStatus(o.Status) {
		return invalid("status", "unknown status")
	}

	current, err := s.store.GetOrganization(ctx, o.ID)
	if err != nil {
		return err
	}
	if err := s.store.UpdateOrganization(ctx, o); err != nil {
		return err
	}

	if current.Status == models.StatusActive && o.Status == models.StatusInactive {
		n, err := s.store.DeactivateRoomsByOrganization(ctx, o.ID)
		if err != nil {
			return err
		}
		s.logger.Info().
			Int64("organization_id", o.ID).
			Int64("rooms_deactivated", n).
			Msg("Organization deactivated")
	}
	return nil
}

// DeleteOrganization removes the organization.
func (s *DirectoryService) DeleteOrganization(ctx context.Context, id int64) error {
	return s.store.DeleteOrganization(ctx, id)
}

// GetOrganization loads one organization.
func (s *DirectoryService) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	return s.store.GetOrganization(ctx, id)
}

// ListOrganizations returns all organizations.
func (s *DirectoryService) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	return s.store.ListOrganizations(ctx)
}

func (s *DirectoryService) validateOffice(ctx context.Context, o *models.Office) error {
	if o.Name == "" {
		return invalid("name", "must not be empty")
	}
	if !o.ValidTimeZone() {
		return invalid("time_zone", "offset must be between -12 and +14")
	}
	if _, err := s.store.GetOrganization(ctx, o.OrganizationID); err != nil {
		return err
	}
	return nil
}

// CreateOffice stores a new office after validating its timezone offset and
// organization.
func (s *DirectoryService) CreateOffice(ctx context.Context, o *models.Office) error {
	if err := s.validateOffice(ctx, o); err != nil {
		return err
	}
	return s.store.CreateOffice(ctx, o)
}

// UpdateOffice rewrites the office. Events already stored keep the shift they
// were booked under.
func (s *DirectoryService) UpdateOffice(ctx context.Context, o *models.Office) error {
	if err := s.validateOffice(ctx, o); err != nil {
		return err
	}
	return s.store.UpdateOffice(ctx, o)
}

// DeleteOffice removes the office.
func (s *DirectoryService) DeleteOffice(ctx context.Context, id int64) error {
	return s.store.DeleteOffice(ctx, id)
}

// GetOffice loads one office.
func (s *DirectoryService) GetOffice(ctx context.Context, id int64) (*models.Office, error) {
	return s.store.GetOffice(ctx, id)
}

// ListOffices returns offices, optionally scoped to one organization.
func (s *DirectoryService) ListOffices(ctx context.Context, organizationID *int64) ([]models.Office, error) {
	return s.store.ListOffices(ctx, organizationID)
}

func (s *DirectoryService) validateEmployee(ctx context.Context, e *models.Employee) error {
	if e.FirstName == "" && e.LastName == "" {
		return invalid("name", "first or last name required")
	}
	if _, err := s.store.GetOffice(ctx, e.OfficeID); err != nil {
		return err
	}
	return nil
}

// CreateEmployee stores a new employee.
func (s *DirectoryService) CreateEmployee(ctx context.Context, e *models.Employee) error {
	if err := s.validateEmployee(ctx, e); err != nil {
		return err
	}
	return s.store.CreateEmployee(ctx, e)
}

// UpdateEmployee rewrites the employee.
func (s *DirectoryService) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	if err := s.validateEmployee(ctx, e); err != nil {
		return err
	}
	return s.store.UpdateEmployee(ctx, e)
}

// DeleteEmployee removes the employee.
func (s *DirectoryService) DeleteEmployee(ctx context.Context, id int64) error {
	return s.store.DeleteEmployee(ctx, id)
}

// GetEmployee loads one employee.
func (s *DirectoryService) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

// ListEmployees returns employees, optionally scoped to one office.
func (s *DirectoryService) ListEmployees(ctx context.Context, officeID *int64) ([]models.Employee, error) {
	return s.store.ListEmployees(ctx, officeID)
}

// Subscribe registers a web-push endpoint for the employee.
func (s *DirectoryService) Subscribe(ctx context.Context, sub *models.PushSubscription) error {
	if sub.Endpoint == "" {
		return invalid("endpoint", "must not be empty")
	}
	if _, err := s.store.GetEmployee(ctx, sub.EmployeeID); err != nil {
		return err
	}
	return s.store.CreatePushSubscription(ctx, sub)
}

// Unsubscribe drops one push subscription.
func (s *DirectoryService) Unsubscribe(ctx context.Context, id int64) error {
	return s.store.DeletePushSubscription(ctx, id)
}

// Subscriptions lists the employee's push endpoints.
func (s *DirectoryService) Subscriptions(ctx context.Context, employeeID int64) ([]models.PushSubscription, error) {
	return s.store.GetPushSubscriptions(ctx, employeeID)
}
