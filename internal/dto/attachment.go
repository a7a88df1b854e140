package dto

import "github.com/oakwood-trust/safeguard-api/internal/models"

// UploadAttachmentResponse returns the stored metadata and a signed URL for
// retrieving the binary.
type UploadAttachmentResponse struct {
	Attachment  models.Attachment `json:"attachment"`
	DownloadURL string            `json:"download_url"`
}
