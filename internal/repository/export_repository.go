package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// ExportRepository persists incident export jobs.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs the repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export job row.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO export_jobs (id, incident_id, format, status, file_path, error_message, created_by, created_at, started_at, finished_at)
	VALUES (:id, :incident_id, :format, :status, :file_path, :error_message, :created_by, :created_at, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// GetByID fetches an export job by identifier.
func (r *ExportRepository) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, incident_id, format, status, file_path, error_message, created_by, created_at, started_at, finished_at
	FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateExportJobParams groups mutable columns for job progress updates.
type UpdateExportJobParams struct {
	Status       *models.ExportStatus
	FilePath     *string
	ErrorMessage *string
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Update applies the provided fields to a job row.
func (r *ExportRepository) Update(ctx context.Context, id string, params UpdateExportJobParams) error {
	setParts := []string{}
	values := map[string]interface{}{"id": id}
	if params.Status != nil {
		setParts = append(setParts, "status = :status")
		values["status"] = *params.Status
	}
	if params.FilePath != nil {
		setParts = append(setParts, "file_path = :file_path")
		values["file_path"] = *params.FilePath
	}
	if params.ErrorMessage != nil {
		setParts = append(setParts, "error_message = :error_message")
		values["error_message"] = *params.ErrorMessage
	}
	if params.StartedAt != nil {
		setParts = append(setParts, "started_at = :started_at")
		values["started_at"] = *params.StartedAt
	}
	if params.FinishedAt != nil {
		setParts = append(setParts, "finished_at = :finished_at")
		values["finished_at"] = *params.FinishedAt
	}
	if len(setParts) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE export_jobs SET %s WHERE id = :id", strings.Join(setParts, ", "))
	if _, err := r.db.NamedExecContext(ctx, query, values); err != nil {
		return fmt.Errorf("update export job: %w", err)
	}
	return nil
}
