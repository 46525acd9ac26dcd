package service

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomly/internal/models"
)

type mockDirectoryStore struct {
	mock.Mock
}

func (m *mockDirectoryStore) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}
func (m *mockDirectoryStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockDirectoryStore) UpdateOrganization(ctx context.Context, o *models.Organization) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockDirectoryStore) DeleteOrganization(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockDirectoryStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Organization), args.Error(1)
}
func (m *mockDirectoryStore) DeactivateRoomsByOrganization(ctx context.Context, organizationID int64) (int64, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockDirectoryStore) GetOffice(ctx context.Context, id int64) (*models.Office, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Office), args.Error(1)
}
func (m *mockDirectoryStore) CreateOffice(ctx context.Context, o *models.Office) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockDirectoryStore) UpdateOffice(ctx context.Context, o *models.Office) error {
	return m.Called(ctx, o).Error(0)
}
func (m *mockDirectoryStore) DeleteOffice(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockDirectoryStore) ListOffices(ctx context.Context, organizationID *int64) ([]models.Office, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).([]models.Office), args.Error(1)
}
func (m *mockDirectoryStore) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}
func (m *mockDirectoryStore) CreateEmployee(ctx context.Context, e *models.Employee) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockDirectoryStore) UpdateEmployee(ctx context.Context, e *models.Employee) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockDirectoryStore) DeleteEmployee(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockDirectoryStore) ListEmployees(ctx context.Context, officeID *int64) ([]models.Employee, error) {
	args := m.Called(ctx, officeID)
	return args.Get(0).([]models.Employee), args.Error(1)
}
func (m *mockDirectoryStore) GetPushSubscriptions(ctx context.Context, employeeID int64) ([]models.PushSubscription, error) {
	args := m.Called(ctx, employeeID)
	return args.Get(0).([]models.PushSubscription), args.Error(1)
}
func (m *mockDirectoryStore) CreatePushSubscription(ctx context.Context, s *models.PushSubscription) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockDirectoryStore) DeletePushSubscription(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newDirectoryService(store *mockDirectoryStore) *DirectoryService {
	return NewDirectoryService(store, zerolog.New(io.Discard))
}

func TestDeactivatingOrganizationCascades(t *testing.T) {
	store := new(mockDirectoryStore)
	svc := newDirectoryService(store)

	store.On("GetOrganization", mock.Anything, int64(1)).
		Return(&models.Organization{ID: 1, Name: "Acme", Status: models.StatusActive}, nil)
	store.On("UpdateOrganization", mock.Anything, mock.Anything).Return(nil)
	store.On("DeactivateRoomsByOrganization", mock.Anything, int64(1)).Return(int64(4), nil)

	err := svc.UpdateOrganization(context.Background(),
		&models.Organization{ID: 1, Name: "Acme", Status: models.StatusInactive})
	require.NoError(t, err)
	store.AssertCalled(t, "DeactivateRoomsByOrganization", mock.Anything, int64(1))
}

func TestUpdatingActiveOrganizationDoesNotCascade(t *testing.T) {
	store := new(mockDirectoryStore)
	svc := newDirectoryService(store)

	store.On("GetOrganization", mock.Anything, int64(1)).
		Return(&models.Organization{ID: 1, Name: "Acme", Status: models.StatusActive}, nil)
	store.On("UpdateOrganization", mock.Anything, mock.Anything).Return(nil)

	err := svc.UpdateOrganization(context.Background(),
		&models.Organization{ID: 1, Name: "Acme Renamed", Status: models.StatusActive})
	require.NoError(t, err)
	store.AssertNotCalled(t, "DeactivateRoomsByOrganization", mock.Anything, mock.Anything)
}

func TestCreateOfficeValidatesTimeZone(t *testing.T) {
	store := new(mockDirectoryStore)
	svc := newDirectoryService(store)

	err := svc.CreateOffice(context.Background(),
		&models.Office{Name: "HQ", TimeZone: 20, OrganizationID: 1})
	assert.True(t, IsValidation(err))
	store.AssertNotCalled(t, "CreateOffice", mock.Anything, mock.Anything)
}

func TestSubscribeValidatesEmployee(t *testing.T) {
	store := new(mockDirectoryStore)
	svc := newDirectoryService(store)

	err := svc.Subscribe(context.Background(), &models.PushSubscription{EmployeeID: 1})
	assert.True(t, IsValidation(err), "endpoint required")

	store.On("GetEmployee", mock.Anything, int64(1)).Return(&models.Employee{ID: 1}, nil)
	store.On("CreatePushSubscription", mock.Anything, mock.Anything).Return(nil)

	err = svc.Subscribe(context.Background(),
		&models.PushSubscription{EmployeeID: 1, Endpoint: "https://push.example/abc"})
	require.NoError(t, err)
}
