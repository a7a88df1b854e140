package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// NotificationRepository reads and updates staff notification records outside
// the incident write transaction.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListForUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, unviewedOnly bool) ([]models.NotificationRecord, error) {
	query := `SELECT id, incident_id, user_id, created_at, viewed_at
	FROM incident_notifications WHERE user_id = $1`
	if unviewedOnly {
		query += " AND viewed_at IS NULL"
	}
	query += " ORDER BY created_at DESC"
	var records []models.NotificationRecord
	if err := r.db.SelectContext(ctx, &records, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return records, nil
}

// FindByID returns one notification record.
func (r *NotificationRepository) FindByID(ctx context.Context, id int64) (*models.NotificationRecord, error) {
	const query = `SELECT id, incident_id, user_id, created_at, viewed_at FROM incident_notifications WHERE id = $1`
	var record models.NotificationRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// MarkViewed stamps viewed_at if it is not already set.
func (r *NotificationRepository) MarkViewed(ctx context.Context, id int64, viewedAt time.Time) error {
	const query = `UPDATE incident_notifications SET viewed_at = $2 WHERE id = $1 AND viewed_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, viewedAt); err != nil {
		return fmt.Errorf("mark notification viewed: %w", err)
	}
	return nil
}
