package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// AttachmentRepository persists incident attachment metadata. File binaries
// live on the storage backend; only paths are stored here.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts a new attachment metadata row.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.CreatedAt.IsZero() {
		attachment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attachments (incident_id, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		attachment.IncidentID, attachment.FileName, attachment.FilePath, attachment.MimeType,
		attachment.SizeBytes, attachment.UploadedBy, attachment.CreatedAt,
	).Scan(&attachment.ID); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// FindByID returns one attachment row.
func (r *AttachmentRepository) FindByID(ctx context.Context, id int64) (*models.Attachment, error) {
	const query = `SELECT id, incident_id, file_name, file_path, mime_type, size_bytes, uploaded_by, created_at
	FROM attachments WHERE id = $1`
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}
