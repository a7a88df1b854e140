package models

import "time"

// StudentLinkRole tags how a student relates to an incident.
type StudentLinkRole string

const (
	StudentRoleInvolved StudentLinkRole = "involved"
	StudentRolePrimary  StudentLinkRole = "primary"
)

// Incident is the persisted incident report row.
type Incident struct {
	ID               int64     `db:"id" json:"id"`
	CategoryID       int       `db:"category_id" json:"category_id"`
	LocationID       int       `db:"location_id" json:"location_id"`
	IncidentDate     time.Time `db:"incident_date" json:"incident_date"`
	IncidentTime     string    `db:"incident_time" json:"incident_time"`
	Details          string    `db:"details" json:"details"`
	WitnessID        *int64    `db:"witness_id" json:"witness_id,omitempty"`
	ActionsTaken     string    `db:"actions_taken" json:"actions_taken"`
	FollowUpRequired bool      `db:"follow_up_required" json:"follow_up_required"`
	IsConfidential   bool      `db:"is_confidential" json:"is_confidential"`
	Urgent           bool      `db:"urgent" json:"urgent"`
	CreatedBy        int64     `db:"created_by" json:"created_by"`
	StatusID         int       `db:"status_id" json:"status_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// IncidentStudentLink associates a student with an incident under a role.
type IncidentStudentLink struct {
	IncidentID int64           `db:"incident_id" json:"incident_id"`
	StudentID  string          `db:"student_id" json:"student_id"`
	Role       StudentLinkRole `db:"role" json:"role"`
}

// BodyMapMark is a single annotation on the body-map diagram. Coordinates are
// percentages of the rendered image width/height.
type BodyMapMark struct {
	ID         int64   `db:"id" json:"id"`
	IncidentID int64   `db:"incident_id" json:"incident_id"`
	View       string  `db:"view" json:"view"`
	X          float64 `db:"x" json:"x"`
	Y          float64 `db:"y" json:"y"`
	Note       string  `db:"note" json:"note"`
}

// Attachment stores metadata for an uploaded evidence file. The binary lives
// on the file storage, keyed by FilePath.
type Attachment struct {
	ID         int64     `db:"id" json:"id"`
	IncidentID int64     `db:"incident_id" json:"incident_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FilePath   string    `db:"file_path" json:"file_path"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	UploadedBy int64     `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// IncidentFilter captures list query parameters.
type IncidentFilter struct {
	CategoryID     *int
	StatusID       *int
	StudentID      string
	DateFrom       *time.Time
	DateTo         *time.Time
	Urgent         *bool
	IsConfidential *bool
	Page           int
	PageSize       int
}
