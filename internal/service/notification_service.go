package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/models"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

type notificationStore interface {
	ListForUser(ctx context.Context, userID int64, unviewedOnly bool) ([]models.NotificationRecord, error)
	FindByID(ctx context.Context, id int64) (*models.NotificationRecord, error)
	MarkViewed(ctx context.Context, id int64, viewedAt time.Time) error
}

// NotificationService surfaces incident notifications to their recipients.
type NotificationService struct {
	repo   notificationStore
	audit  auditLogger
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationStore, audit auditLogger, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, audit: audit, logger: logger}
}

// ListForUser returns the caller's notifications, optionally only unviewed ones.
func (s *NotificationService) ListForUser(ctx context.Context, claims *models.JWTClaims, unviewedOnly bool) ([]models.NotificationRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	records, err := s.repo.ListForUser(ctx, claims.UserID, unviewedOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if records == nil {
		records = []models.NotificationRecord{}
	}
	return records, nil
}

// MarkViewed stamps a notification as seen. Only the recipient may do so, and
// an already viewed notification keeps its original timestamp.
func (s *NotificationService) MarkViewed(ctx context.Context, rawID string, claims *models.JWTClaims) (*models.NotificationRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification id must be a positive number")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if record.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "notification belongs to another user")
	}

	if record.ViewedAt == nil {
		viewedAt := time.Now().UTC()
		if err := s.repo.MarkViewed(ctx, id, viewedAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification viewed")
		}
		record.ViewedAt = &viewedAt

		notificationRef := strconv.FormatInt(id, 10)
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &claims.UserID,
			Action:     models.AuditActionNotificationViewed,
			Resource:   "notification",
			ResourceID: &notificationRef,
		}); err != nil {
			s.logger.Warn("failed to record notification audit log", zap.Error(err))
		}
	}

	return record, nil
}
