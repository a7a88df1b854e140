package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/models"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

type fakeNotificationStore struct {
	records    map[int64]*models.NotificationRecord
	listed     []models.NotificationRecord
	markedIDs  []int64
	listErr    error
	markViewed error
}

func (f *fakeNotificationStore) ListForUser(ctx context.Context, userID int64, unviewedOnly bool) ([]models.NotificationRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

func (f *fakeNotificationStore) FindByID(ctx context.Context, id int64) (*models.NotificationRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (f *fakeNotificationStore) MarkViewed(ctx context.Context, id int64, viewedAt time.Time) error {
	if f.markViewed != nil {
		return f.markViewed
	}
	f.markedIDs = append(f.markedIDs, id)
	return nil
}

type fakeAuditLogger struct {
	logs []*models.AuditLog
}

func (f *fakeAuditLogger) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func TestNotificationServiceMarkViewed(t *testing.T) {
	store := &fakeNotificationStore{records: map[int64]*models.NotificationRecord{
		10: {ID: 10, UserID: 7, IncidentID: 3},
	}}
	audit := &fakeAuditLogger{}
	svc := NewNotificationService(store, audit, zap.NewNop())

	record, err := svc.MarkViewed(context.Background(), "10", &models.JWTClaims{UserID: 7, Role: models.RoleStaff})
	require.NoError(t, err)
	require.NotNil(t, record.ViewedAt)
	assert.Equal(t, []int64{10}, store.markedIDs)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionNotificationViewed, audit.logs[0].Action)
}

func TestNotificationServiceMarkViewedIdempotent(t *testing.T) {
	viewedAt := time.Now().UTC().Add(-time.Hour)
	store := &fakeNotificationStore{records: map[int64]*models.NotificationRecord{
		10: {ID: 10, UserID: 7, IncidentID: 3, ViewedAt: &viewedAt},
	}}
	svc := NewNotificationService(store, &fakeAuditLogger{}, zap.NewNop())

	record, err := svc.MarkViewed(context.Background(), "10", &models.JWTClaims{UserID: 7, Role: models.RoleStaff})
	require.NoError(t, err)
	require.NotNil(t, record.ViewedAt)
	assert.True(t, record.ViewedAt.Equal(viewedAt))
	assert.Empty(t, store.markedIDs)
}

func TestNotificationServiceMarkViewedOwnership(t *testing.T) {
	store := &fakeNotificationStore{records: map[int64]*models.NotificationRecord{
		10: {ID: 10, UserID: 7, IncidentID: 3},
	}}
	svc := NewNotificationService(store, &fakeAuditLogger{}, zap.NewNop())

	_, err := svc.MarkViewed(context.Background(), "10", &models.JWTClaims{UserID: 8, Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.markedIDs)
}

func TestNotificationServiceMarkViewedNotFound(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeAuditLogger{}, zap.NewNop())

	_, err := svc.MarkViewed(context.Background(), "99", &models.JWTClaims{UserID: 7})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceListForUserEmpty(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, &fakeAuditLogger{}, zap.NewNop())

	records, err := svc.ListForUser(context.Background(), &models.JWTClaims{UserID: 7}, true)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
