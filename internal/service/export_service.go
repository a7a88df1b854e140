package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	"github.com/oakwood-trust/safeguard-api/internal/repository"
	"github.com/oakwood-trust/safeguard-api/pkg/config"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
	"github.com/oakwood-trust/safeguard-api/pkg/export"
	"github.com/oakwood-trust/safeguard-api/pkg/jobs"
	"github.com/oakwood-trust/safeguard-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type aggregateReader interface {
	Get(ctx context.Context, rawID string, claims *models.JWTClaims) (*dto.IncidentAggregate, []string, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type exportPayload struct {
	jobID     string
	aggregate *dto.IncidentAggregate
	format    models.ExportFormat
}

// ExportService renders incident reports to PDF or CSV documents through a
// background worker queue.
type ExportService struct {
	repo      exportJobStore
	incidents aggregateReader
	audit     auditLogger
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	pdf       *export.PDFRenderer
	csv       *export.CSVRenderer
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportService wires the export pipeline and its worker queue. Start the
// returned service's queue before accepting requests.
func NewExportService(repo exportJobStore, incidents aggregateReader, audit auditLogger, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, cfg config.ExportsConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		repo:      repo,
		incidents: incidents,
		audit:     audit,
		storage:   store,
		signer:    signer,
		pdf:       export.NewPDFRenderer(),
		csv:       export.NewCSVRenderer(),
		metrics:   metrics,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("incident-exports", s.process, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and waits for in-flight jobs.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue validates the request, snapshots the incident aggregate and queues
// a render job. Authorization is enforced here; the worker only renders.
func (s *ExportService) Enqueue(ctx context.Context, incidentID string, req dto.ExportRequest, claims *models.JWTClaims) (*dto.ExportJobResponse, error) {
	format := models.ExportFormatPDF
	switch req.Format {
	case "", string(models.ExportFormatPDF):
	case string(models.ExportFormatCSV):
		format = models.ExportFormatCSV
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
	}

	agg, _, err := s.incidents.Get(ctx, incidentID, claims)
	if err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		IncidentID: agg.Incident.ID,
		Format:     format,
		Status:     models.ExportStatusQueued,
		CreatedBy:  claims.UserID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Type:    "incident_export",
		Payload: exportPayload{jobID: job.ID, aggregate: agg, format: format},
	}); err != nil {
		failed := models.ExportStatusFailed
		msg := "export queue unavailable"
		now := time.Now().UTC()
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &failed, ErrorMessage: &msg, FinishedAt: &now}); updateErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export job")
	}

	incidentRef := strconv.FormatInt(agg.Incident.ID, 10)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionIncidentExport,
		Resource:   "incident",
		ResourceID: &incidentRef,
		NewValues:  []byte(fmt.Sprintf(`{"job_id":%q,"format":%q}`, job.ID, format)),
	}); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}

	return s.toResponse(job), nil
}

// GetJob returns the job state for its creator (or an admin/DSL), including a
// signed download URL once rendering finished.
func (s *ExportService) GetJob(ctx context.Context, jobID string, claims *models.JWTClaims) (*dto.ExportJobResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.CreatedBy != claims.UserID && !canViewConfidential(claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	return s.toResponse(job), nil
}

// Download resolves a signed token to the rendered document on disk.
func (s *ExportService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, contentTypeFor(relPath), nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	processing := models.ExportStatusProcessing
	started := time.Now().UTC()
	if err := s.repo.Update(ctx, payload.jobID, repository.UpdateExportJobParams{Status: &processing, StartedAt: &started}); err != nil {
		s.logger.Warn("failed to mark export job processing", zap.String("job_id", payload.jobID), zap.Error(err))
	}

	data, ext, err := s.render(payload)
	if err == nil {
		relPath := fmt.Sprintf("incidents/%d/%s.%s", payload.aggregate.Incident.ID, payload.jobID, ext)
		_, err = s.storage.Save(relPath, data)
		if err == nil {
			done := models.ExportStatusDone
			finished := time.Now().UTC()
			if updateErr := s.repo.Update(ctx, payload.jobID, repository.UpdateExportJobParams{Status: &done, FilePath: &relPath, FinishedAt: &finished}); updateErr != nil {
				s.logger.Error("failed to mark export job done", zap.String("job_id", payload.jobID), zap.Error(updateErr))
			}
			s.metrics.RecordExport(string(payload.format), true)
			s.logger.Info("export job completed",
				zap.String("job_id", payload.jobID),
				zap.Int64("incident_id", payload.aggregate.Incident.ID),
				zap.String("format", string(payload.format)),
			)
			return nil
		}
	}

	failed := models.ExportStatusFailed
	msg := err.Error()
	finished := time.Now().UTC()
	if updateErr := s.repo.Update(ctx, payload.jobID, repository.UpdateExportJobParams{Status: &failed, ErrorMessage: &msg, FinishedAt: &finished}); updateErr != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", payload.jobID), zap.Error(updateErr))
	}
	s.metrics.RecordExport(string(payload.format), false)
	return err
}

func (s *ExportService) render(payload exportPayload) ([]byte, string, error) {
	switch payload.format {
	case models.ExportFormatCSV:
		data, err := s.csv.Render(payload.aggregate)
		return data, "csv", err
	default:
		data, err := s.pdf.Render(payload.aggregate)
		return data, "pdf", err
	}
}

func (s *ExportService) toResponse(job *models.ExportJob) *dto.ExportJobResponse {
	resp := &dto.ExportJobResponse{
		ID:           job.ID,
		IncidentID:   job.IncidentID,
		Format:       job.Format,
		Status:       job.Status,
		ErrorMessage: job.ErrorMessage,
	}
	if job.Status == models.ExportStatusDone && job.FilePath != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign export download url", zap.String("job_id", job.ID), zap.Error(err))
			return resp
		}
		url := "/downloads/exports?token=" + token
		resp.DownloadURL = &url
		resp.ExpiresAt = &expiresAt
	}
	return resp
}

func contentTypeFor(path string) string {
	if len(path) > 4 && path[len(path)-4:] == ".csv" {
		return "text/csv"
	}
	return "application/pdf"
}
