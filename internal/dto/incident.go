package dto

import (
	"time"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// BodyMapMarkerInput is one annotation from the body-map widget.
type BodyMapMarkerInput struct {
	View string  `json:"view"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Note string  `json:"note"`
}

// CreateIncidentRequest mirrors the incident form payload. Field names match
// the wire contract of the existing dashboard client, which mixes snake and
// camel case; every field except the student link is optional and falls back
// to a configured default.
type CreateIncidentRequest struct {
	ID               string               `json:"id"`
	CategoryID       *int                 `json:"category_id"`
	LocationID       *int                 `json:"location_id"`
	IncidentDate     string               `json:"incident_date"`
	IncidentTime     string               `json:"incident_time"`
	Details          string               `json:"details"`
	WitnessID        *int64               `json:"witness_id"`
	ActionsTaken     string               `json:"actions_taken"`
	FollowUpRequired bool                 `json:"follow_up_required"`
	IsConfidential   bool                 `json:"is_confidential"`
	Urgent           bool                 `json:"urgent"`
	CreatedBy        *int64               `json:"created_by"`
	StudentID        string               `json:"student_id"`
	PrimaryStudent   string               `json:"primaryStudent"`
	LinkedStudents   []string             `json:"linkedStudents"`
	BodyMapMarkers   []BodyMapMarkerInput `json:"bodyMapMarkers"`
	NotifyStaff      []int64              `json:"notifyStaff"`
}

// CreateIncidentResponse acknowledges a created report.
type CreateIncidentResponse struct {
	Success  bool  `json:"success"`
	ReportID int64 `json:"reportId"`
}

// IncidentDetail is the incident row joined with display names for the
// category, location, witness, creator and status references.
type IncidentDetail struct {
	models.Incident
	CategoryName  string  `db:"category_name" json:"category_name"`
	LocationName  string  `db:"location_name" json:"location_name"`
	WitnessName   *string `db:"witness_name" json:"witness_name,omitempty"`
	CreatedByName string  `db:"created_by_name" json:"created_by_name"`
	StatusName    string  `db:"status_name" json:"status_name"`
}

// LinkedStudent joins an incident-student link with student demographics.
type LinkedStudent struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	Role        string    `db:"role" json:"role"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	YearGroup   string    `db:"year_group" json:"year_group"`
	TutorGroup  string    `db:"tutor_group" json:"tutor_group"`
}

// AttachmentDetail joins attachment metadata with the uploader display name.
type AttachmentDetail struct {
	models.Attachment
	UploadedByName string `db:"uploaded_by_name" json:"uploaded_by_name"`
}

// NotificationDetail joins a notification with the notified user.
type NotificationDetail struct {
	models.NotificationRecord
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

// IncidentAggregate is the full read model for one incident: the incident row
// plus every related child collection, recomputed fresh on each read.
type IncidentAggregate struct {
	Incident          IncidentDetail            `json:"incident"`
	Students          []LinkedStudent           `json:"students"`
	EmergencyContacts []models.EmergencyContact `json:"emergencyContacts"`
	Attachments       []AttachmentDetail        `json:"attachments"`
	BodyMap           []models.BodyMapMark      `json:"bodyMap"`
	Notifications     []NotificationDetail      `json:"notifications"`
}
