package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	"github.com/oakwood-trust/safeguard-api/internal/repository"
	"github.com/oakwood-trust/safeguard-api/pkg/config"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

type fakeIncidentStore struct {
	createParams *repository.CreateIncidentParams
	createID     int64
	createErr    error

	detail    *dto.IncidentDetail
	detailErr error

	students    []dto.LinkedStudent
	studentsErr error

	contacts     []models.EmergencyContact
	contactsErr  error
	contactsArgs []string

	attachments    []dto.AttachmentDetail
	attachmentsErr error

	marks    []models.BodyMapMark
	marksErr error

	notifications    []dto.NotificationDetail
	notificationsErr error

	listIncidents []dto.IncidentDetail
	listTotal     int
	listErr       error
	listFilter    models.IncidentFilter
}

func (f *fakeIncidentStore) Create(_ context.Context, params repository.CreateIncidentParams) (int64, error) {
	f.createParams = &params
	return f.createID, f.createErr
}

func (f *fakeIncidentStore) GetDetail(context.Context, int64) (*dto.IncidentDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakeIncidentStore) ListStudents(context.Context, int64) ([]dto.LinkedStudent, error) {
	return f.students, f.studentsErr
}

func (f *fakeIncidentStore) ListEmergencyContacts(_ context.Context, studentIDs []string) ([]models.EmergencyContact, error) {
	f.contactsArgs = studentIDs
	return f.contacts, f.contactsErr
}

func (f *fakeIncidentStore) ListAttachments(context.Context, int64) ([]dto.AttachmentDetail, error) {
	return f.attachments, f.attachmentsErr
}

func (f *fakeIncidentStore) ListBodyMap(context.Context, int64) ([]models.BodyMapMark, error) {
	return f.marks, f.marksErr
}

func (f *fakeIncidentStore) ListNotifications(context.Context, int64) ([]dto.NotificationDetail, error) {
	return f.notifications, f.notificationsErr
}

func (f *fakeIncidentStore) List(_ context.Context, filter models.IncidentFilter) ([]dto.IncidentDetail, int, error) {
	f.listFilter = filter
	return f.listIncidents, f.listTotal, f.listErr
}

type fakeCache struct {
	store   map[string][]byte
	getHit  interface{}
	getErr  error
	setKeys []string
	deleted []string
}

func (f *fakeCache) Get(_ context.Context, _ string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	if agg, ok := f.getHit.(*dto.IncidentAggregate); ok {
		if target, ok := dest.(*dto.IncidentAggregate); ok {
			*target = *agg
			return nil
		}
	}
	return appErrors.ErrCacheMiss
}

func (f *fakeCache) Set(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	f.setKeys = append(f.setKeys, key)
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func defaultsConfig() config.IncidentsConfig {
	return config.IncidentsConfig{
		DefaultCategoryID: 1,
		DefaultLocationID: 1,
		DefaultTime:       "12:00:00",
		InitialStatusID:   1,
		DefaultCreatedBy:  1,
		CacheTTL:          time.Minute,
	}
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: 12, Role: models.RoleStaff}
}

func TestIncidentServiceCreateAppliesDefaults(t *testing.T) {
	store := &fakeIncidentStore{createID: 42}
	cache := &fakeCache{getErr: appErrors.ErrCacheMiss}
	svc := NewIncidentService(store, cache, nil, nil, nil, defaultsConfig())

	res, err := svc.Create(context.Background(), dto.CreateIncidentRequest{
		StudentID: "S1",
		Details:   "Minor scrape",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(42), res.ReportID)

	require.NotNil(t, store.createParams)
	assert.Nil(t, store.createParams.ID)
	assert.Equal(t, 1, store.createParams.CategoryID)
	assert.Equal(t, 1, store.createParams.LocationID)
	assert.Equal(t, "12:00:00", store.createParams.IncidentTime)
	assert.Equal(t, int64(1), store.createParams.CreatedBy)
	assert.Equal(t, 1, store.createParams.StatusID)
	assert.Equal(t, time.Now().UTC().Truncate(24*time.Hour), store.createParams.IncidentDate)

	assert.Equal(t, []string{repository.IncidentAggregateKey(42)}, cache.deleted)
}

func TestIncidentServiceCreateHonoursCallerValues(t *testing.T) {
	store := &fakeIncidentStore{createID: 501}
	svc := NewIncidentService(store, nil, nil, nil, nil, defaultsConfig())

	category := 3
	location := 2
	creator := int64(12)
	_, err := svc.Create(context.Background(), dto.CreateIncidentRequest{
		ID:             "501",
		CategoryID:     &category,
		LocationID:     &location,
		CreatedBy:      &creator,
		IncidentDate:   "2026-03-14",
		IncidentTime:   "10:30:00",
		StudentID:      "S1",
		PrimaryStudent: "S1",
		BodyMapMarkers: []dto.BodyMapMarkerInput{{View: "back", X: 10, Y: 20}},
	})
	require.NoError(t, err)

	params := store.createParams
	require.NotNil(t, params.ID)
	assert.Equal(t, int64(501), *params.ID)
	assert.Equal(t, 3, params.CategoryID)
	assert.Equal(t, 2, params.LocationID)
	assert.Equal(t, int64(12), params.CreatedBy)
	assert.Equal(t, "10:30:00", params.IncidentTime)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), params.IncidentDate)
	assert.Equal(t, "S1", params.StudentID)
	assert.Equal(t, "S1", params.PrimaryStudent)
	require.Len(t, params.BodyMapMarkers, 1)
	assert.Equal(t, "back", params.BodyMapMarkers[0].View)
}

func TestIncidentServiceCreateRejectsNonNumericID(t *testing.T) {
	svc := NewIncidentService(&fakeIncidentStore{}, nil, nil, nil, nil, defaultsConfig())

	_, err := svc.Create(context.Background(), dto.CreateIncidentRequest{ID: "abc", StudentID: "S1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestIncidentServiceGetRejectsInvalidID(t *testing.T) {
	svc := NewIncidentService(&fakeIncidentStore{}, nil, nil, nil, nil, defaultsConfig())

	for _, raw := range []string{"", "abc", "-1", "0"} {
		_, _, err := svc.Get(context.Background(), raw, staffClaims())
		require.Error(t, err, raw)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestIncidentServiceGetNotFound(t *testing.T) {
	store := &fakeIncidentStore{detailErr: sql.ErrNoRows}
	svc := NewIncidentService(store, nil, nil, nil, nil, defaultsConfig())

	_, _, err := svc.Get(context.Background(), "99", staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestIncidentServiceGetAggregate(t *testing.T) {
	detail := &dto.IncidentDetail{}
	detail.ID = 5
	store := &fakeIncidentStore{
		detail: detail,
		students: []dto.LinkedStudent{
			{StudentID: "S1", Role: "involved"},
			{StudentID: "S1", Role: "primary"},
			{StudentID: "S2", Role: "involved"},
		},
		contacts: []models.EmergencyContact{{StudentID: "S1", Name: "Parent"}},
	}
	cache := &fakeCache{getErr: appErrors.ErrCacheMiss}
	svc := NewIncidentService(store, cache, nil, nil, nil, defaultsConfig())

	agg, degraded, err := svc.Get(context.Background(), "5", staffClaims())
	require.NoError(t, err)
	assert.Nil(t, degraded)
	assert.Len(t, agg.Students, 3)
	assert.Len(t, agg.EmergencyContacts, 1)
	assert.NotNil(t, agg.Attachments)
	assert.NotNil(t, agg.BodyMap)
	assert.NotNil(t, agg.Notifications)

	// duplicate links collapse to unique ids for the contact lookup
	assert.Equal(t, []string{"S1", "S2"}, store.contactsArgs)
	// complete aggregates are cached
	assert.Equal(t, []string{repository.IncidentAggregateKey(5)}, cache.setKeys)
}

func TestIncidentServiceGetDegradedContacts(t *testing.T) {
	detail := &dto.IncidentDetail{}
	detail.ID = 5
	store := &fakeIncidentStore{
		detail:      detail,
		students:    []dto.LinkedStudent{{StudentID: "S1", Role: "involved"}},
		contactsErr: errors.New("contacts table offline"),
	}
	cache := &fakeCache{getErr: appErrors.ErrCacheMiss}
	svc := NewIncidentService(store, cache, nil, nil, nil, defaultsConfig())

	agg, degraded, err := svc.Get(context.Background(), "5", staffClaims())
	require.NoError(t, err)
	assert.Equal(t, []string{SectionEmergencyContacts}, degraded)
	assert.Empty(t, agg.EmergencyContacts)
	assert.Len(t, agg.Students, 1)
	// degraded aggregates must not be cached
	assert.Empty(t, cache.setKeys)
}

func TestIncidentServiceGetCacheHit(t *testing.T) {
	cached := &dto.IncidentAggregate{}
	cached.Incident.ID = 5
	store := &fakeIncidentStore{detailErr: errors.New("db should not be touched")}
	svc := NewIncidentService(store, &fakeCache{getHit: cached}, nil, nil, nil, defaultsConfig())

	agg, degraded, err := svc.Get(context.Background(), "5", staffClaims())
	require.NoError(t, err)
	assert.Nil(t, degraded)
	assert.Equal(t, int64(5), agg.Incident.ID)
}

func TestIncidentServiceGetConfidentialRequiresRole(t *testing.T) {
	detail := &dto.IncidentDetail{}
	detail.ID = 5
	detail.IsConfidential = true
	detail.CreatedBy = 99
	store := &fakeIncidentStore{detail: detail}
	svc := NewIncidentService(store, nil, nil, nil, nil, defaultsConfig())

	_, _, err := svc.Get(context.Background(), "5", staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Get(context.Background(), "5", &models.JWTClaims{UserID: 2, Role: models.RoleDSL})
	require.NoError(t, err)

	// the creator can always read their own report
	_, _, err = svc.Get(context.Background(), "5", &models.JWTClaims{UserID: 99, Role: models.RoleStaff})
	require.NoError(t, err)
}

func TestIncidentServiceListHidesConfidentialFromStaff(t *testing.T) {
	store := &fakeIncidentStore{listIncidents: []dto.IncidentDetail{}, listTotal: 0}
	svc := NewIncidentService(store, nil, nil, nil, nil, defaultsConfig())

	_, _, err := svc.List(context.Background(), models.IncidentFilter{}, staffClaims())
	require.NoError(t, err)
	require.NotNil(t, store.listFilter.IsConfidential)
	assert.False(t, *store.listFilter.IsConfidential)

	_, _, err = svc.List(context.Background(), models.IncidentFilter{}, &models.JWTClaims{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Nil(t, store.listFilter.IsConfidential)
}
