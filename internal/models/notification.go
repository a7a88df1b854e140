package models

import "time"

// NotificationRecord links a staff member to an incident they were notified
// about. ViewedAt stays nil until the recipient opens the notification.
type NotificationRecord struct {
	ID         int64      `db:"id" json:"id"`
	IncidentID int64      `db:"incident_id" json:"incident_id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ViewedAt   *time.Time `db:"viewed_at" json:"viewed_at,omitempty"`
}
