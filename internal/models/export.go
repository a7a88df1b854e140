package models

import "time"

// ExportFormat enumerates supported export renderings.
type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatCSV ExportFormat = "csv"
)

// ExportStatus tracks the lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusDone       ExportStatus = "DONE"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is a queued request to render an incident report to a document.
type ExportJob struct {
	ID           string       `db:"id" json:"id"`
	IncidentID   int64        `db:"incident_id" json:"incident_id"`
	Format       ExportFormat `db:"format" json:"format"`
	Status       ExportStatus `db:"status" json:"status"`
	FilePath     *string      `db:"file_path" json:"file_path,omitempty"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	CreatedBy    int64        `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	StartedAt    *time.Time   `db:"started_at" json:"started_at,omitempty"`
	FinishedAt   *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}
