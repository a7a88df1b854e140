package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

func newIncidentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIncidentRepositoryCreateWithCallerID(t *testing.T) {
	db, mock, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	id := int64(501)
	params := CreateIncidentParams{
		ID:           &id,
		CategoryID:   3,
		LocationID:   2,
		IncidentDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		IncidentTime: "10:30:00",
		Details:      "Playground fall",
		CreatedBy:    12,
		StatusID:     1,
		// S1 appears both as the top-level student and the primary
		// student, which produces two link rows for the same student.
		StudentID:      "S1",
		PrimaryStudent: "S1",
		LinkedStudents: []string{"S2"},
		BodyMapMarkers: []BodyMapMarkerParams{{X: 40.5, Y: 12.0, Note: "bruise"}},
		NotifyStaff:    []int64{7, 8},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO incidents").
		WithArgs(id, 3, 2, params.IncidentDate, "10:30:00", "Playground fall", nil, "", false, false, false, int64(12), 1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	mock.ExpectExec("INSERT INTO incident_students").
		WithArgs(id, "S1", models.StudentRoleInvolved).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO incident_students").
		WithArgs(id, "S1", models.StudentRolePrimary).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO incident_students").
		WithArgs(id, "S2").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec("INSERT INTO body_maps").
		WithArgs(id, "front", 40.5, 12.0, "bruise").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO incident_notifications").
		WithArgs(id, sqlmock.AnyArg(), int64(7), int64(8)).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	incidentID, err := repo.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, id, incidentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryCreateServerAssignedID(t *testing.T) {
	db, mock, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO incidents").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(777)))
	mock.ExpectExec("INSERT INTO incident_students").
		WithArgs(int64(777), "S9", models.StudentRoleInvolved).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	incidentID, err := repo.Create(context.Background(), CreateIncidentParams{
		CategoryID:   1,
		LocationID:   1,
		IncidentDate: time.Now().UTC(),
		IncidentTime: "12:00:00",
		CreatedBy:    1,
		StatusID:     1,
		StudentID:    "S9",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(777), incidentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryCreateRollsBackOnChildFailure(t *testing.T) {
	db, mock, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO incidents").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectExec("INSERT INTO incident_students").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), CreateIncidentParams{
		CategoryID:   1,
		LocationID:   1,
		IncidentDate: time.Now().UTC(),
		IncidentTime: "12:00:00",
		CreatedBy:    1,
		StatusID:     1,
		StudentID:    "S1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert involved student link")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryGetDetailNotFound(t *testing.T) {
	db, mock, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	mock.ExpectQuery("SELECT i.id, i.category_id").
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDetail(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryGetDetail(t *testing.T) {
	db, mock, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "category_id", "location_id", "incident_date", "incident_time", "details",
		"witness_id", "actions_taken", "follow_up_required", "is_confidential", "urgent",
		"created_by", "status_id", "created_at",
		"category_name", "location_name", "witness_name", "created_by_name", "status_name",
	}).AddRow(
		int64(5), 3, 2, now, "10:30:00", "Playground fall",
		nil, "", false, false, true,
		int64(12), 1, now,
		"Physical", "Playground", nil, "Jo Walker", "Open",
	)
	mock.ExpectQuery("SELECT i.id, i.category_id").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	detail, err := repo.GetDetail(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), detail.ID)
	assert.Equal(t, "Physical", detail.CategoryName)
	assert.True(t, detail.Urgent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncidentRepositoryListEmergencyContactsEmptyInput(t *testing.T) {
	db, _, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	contacts, err := repo.ListEmergencyContacts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, contacts)
}

func TestIncidentRepositoryList(t *testing.T) {
	db, mock, cleanup := newIncidentMock(t)
	defer cleanup()
	repo := NewIncidentRepository(db)

	now := time.Now().UTC()
	urgent := true
	rows := sqlmock.NewRows([]string{
		"id", "category_id", "location_id", "incident_date", "incident_time", "details",
		"witness_id", "actions_taken", "follow_up_required", "is_confidential", "urgent",
		"created_by", "status_id", "created_at",
		"category_name", "location_name", "witness_name", "created_by_name", "status_name",
	}).AddRow(
		int64(5), 3, 2, now, "10:30:00", "Playground fall",
		nil, "", false, false, true,
		int64(12), 1, now,
		"Physical", "Playground", nil, "Jo Walker", "Open",
	)
	mock.ExpectQuery("SELECT i.id, i.category_id").
		WithArgs(true).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	incidents, total, err := repo.List(context.Background(), models.IncidentFilter{Urgent: &urgent})
	require.NoError(t, err)
	assert.Len(t, incidents, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
