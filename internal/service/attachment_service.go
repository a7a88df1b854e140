package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	"github.com/oakwood-trust/safeguard-api/pkg/config"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
	"github.com/oakwood-trust/safeguard-api/pkg/storage"
)

type attachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	FindByID(ctx context.Context, id int64) (*models.Attachment, error)
}

type incidentReader interface {
	GetDetail(ctx context.Context, id int64) (*dto.IncidentDetail, error)
}

// AttachmentService stores evidence files for incidents and issues signed
// download URLs for them.
type AttachmentService struct {
	repo      attachmentStore
	incidents incidentReader
	audit     auditLogger
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       config.AttachmentsConfig
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(repo attachmentStore, incidents incidentReader, audit auditLogger, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger, cfg config.AttachmentsConfig) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		repo:      repo,
		incidents: incidents,
		audit:     audit,
		storage:   store,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Upload validates and stores an evidence file against an incident.
func (s *AttachmentService) Upload(ctx context.Context, rawIncidentID, fileName, mimeType string, size int64, body io.Reader, claims *models.JWTClaims) (*dto.UploadAttachmentResponse, error) {
	incidentID, err := parseIncidentID(rawIncidentID)
	if err != nil {
		return nil, err
	}
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if s.cfg.MaxFileSizeBytes > 0 && size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(mimeType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("file type %s is not accepted", mimeType))
	}

	detail, err := s.incidents.GetDetail(ctx, incidentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "incident report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incident report")
	}
	if detail.IsConfidential && !canViewConfidential(claims) && claims.UserID != detail.CreatedBy {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "confidential incident")
	}

	relPath := fmt.Sprintf("incidents/%d/%d-%s", incidentID, time.Now().UnixNano(), sanitizeFileName(fileName))
	if _, err := s.storage.SaveStream(relPath, body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}

	attachment := &models.Attachment{
		IncidentID: incidentID,
		FileName:   fileName,
		FilePath:   relPath,
		MimeType:   mimeType,
		SizeBytes:  size,
		UploadedBy: claims.UserID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if removeErr := s.storage.Delete(relPath); removeErr != nil {
			s.logger.Warn("failed to remove orphaned attachment file", zap.String("path", relPath), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attachment")
	}

	incidentRef := strconv.FormatInt(incidentID, 10)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     models.AuditActionAttachmentUpload,
		Resource:   "incident",
		ResourceID: &incidentRef,
		NewValues:  []byte(fmt.Sprintf(`{"attachment_id":%d,"file_name":%q}`, attachment.ID, fileName)),
	}); err != nil {
		s.logger.Warn("failed to record attachment audit log", zap.Error(err))
	}

	token, _, err := s.signer.Generate(strconv.FormatInt(attachment.ID, 10), relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	return &dto.UploadAttachmentResponse{
		Attachment:  *attachment,
		DownloadURL: "/downloads/attachments?token=" + token,
	}, nil
}

// SignedURL returns a fresh signed download URL for an existing attachment.
func (s *AttachmentService) SignedURL(ctx context.Context, attachmentID int64, claims *models.JWTClaims) (string, error) {
	attachment, err := s.repo.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}

	detail, err := s.incidents.GetDetail(ctx, attachment.IncidentID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incident report")
	}
	if detail.IsConfidential && !canViewConfidential(claims) && (claims == nil || claims.UserID != detail.CreatedBy) {
		return "", appErrors.Clone(appErrors.ErrForbidden, "confidential incident")
	}

	token, _, err := s.signer.Generate(strconv.FormatInt(attachment.ID, 10), attachment.FilePath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return "/downloads/attachments?token=" + token, nil
}

// Download resolves a signed token to the stored file.
func (s *AttachmentService) Download(ctx context.Context, token string) (*os.File, *models.Attachment, error) {
	refID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	attachmentID, err := strconv.ParseInt(refID, 10, 64)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}
	attachment, err := s.repo.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.FilePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attachment file not found")
	}
	return file, attachment, nil
}

func (s *AttachmentService) mimeAllowed(mimeType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}

func sanitizeFileName(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
