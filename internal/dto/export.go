package dto

import (
	"time"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// ExportRequest asks for an incident report document.
type ExportRequest struct {
	Format string `json:"format" validate:"omitempty,oneof=pdf csv"`
}

// ExportJobResponse reports the state of an export job. DownloadURL is set
// once the document has been rendered.
type ExportJobResponse struct {
	ID           string              `json:"id"`
	IncidentID   int64               `json:"incident_id"`
	Format       models.ExportFormat `json:"format"`
	Status       models.ExportStatus `json:"status"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	DownloadURL  *string             `json:"download_url,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
}
