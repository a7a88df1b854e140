package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionLogout             = "LOGOUT"
	AuditActionIncidentCreate     = "INCIDENT_CREATE"
	AuditActionIncidentExport     = "INCIDENT_EXPORT"
	AuditActionAttachmentUpload   = "ATTACHMENT_UPLOAD"
	AuditActionNotificationViewed = "NOTIFICATION_VIEWED"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         int64     `db:"id" json:"id"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
