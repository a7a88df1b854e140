package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	"github.com/oakwood-trust/safeguard-api/internal/repository"
	"github.com/oakwood-trust/safeguard-api/pkg/config"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

// Aggregate section names reported in response meta when a sub-read degrades.
const (
	SectionStudents          = "students"
	SectionEmergencyContacts = "emergencyContacts"
	SectionAttachments       = "attachments"
	SectionBodyMap           = "bodyMap"
	SectionNotifications     = "notifications"
)

type incidentStore interface {
	Create(ctx context.Context, params repository.CreateIncidentParams) (int64, error)
	GetDetail(ctx context.Context, id int64) (*dto.IncidentDetail, error)
	ListStudents(ctx context.Context, incidentID int64) ([]dto.LinkedStudent, error)
	ListEmergencyContacts(ctx context.Context, studentIDs []string) ([]models.EmergencyContact, error)
	ListAttachments(ctx context.Context, incidentID int64) ([]dto.AttachmentDetail, error)
	ListBodyMap(ctx context.Context, incidentID int64) ([]models.BodyMapMark, error)
	ListNotifications(ctx context.Context, incidentID int64) ([]dto.NotificationDetail, error)
	List(ctx context.Context, filter models.IncidentFilter) ([]dto.IncidentDetail, int, error)
}

type aggregateCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IncidentService orchestrates the incident write and read paths.
type IncidentService struct {
	repo      incidentStore
	cache     aggregateCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.IncidentsConfig
}

// NewIncidentService builds an IncidentService with sane defaults.
func NewIncidentService(repo incidentStore, cache aggregateCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg config.IncidentsConfig) *IncidentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncidentService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Create persists a new incident report with its linked students, body-map
// markers and staff notifications as one atomic write. Omitted fields are
// silently replaced with configured defaults; nothing is rejected as missing.
func (s *IncidentService) Create(ctx context.Context, req dto.CreateIncidentRequest) (*dto.CreateIncidentResponse, error) {
	params, err := s.resolveParams(req)
	if err != nil {
		return nil, err
	}

	incidentID, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create incident report")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, repository.IncidentAggregateKey(incidentID)); err != nil {
			s.logger.Warn("failed to invalidate incident cache", zap.Int64("incident_id", incidentID), zap.Error(err))
		}
	}

	s.logger.Info("incident report created",
		zap.Int64("incident_id", incidentID),
		zap.Bool("urgent", params.Urgent),
		zap.Int("notified_staff", len(params.NotifyStaff)),
	)

	return &dto.CreateIncidentResponse{Success: true, ReportID: incidentID}, nil
}

// resolveParams maps the request onto column values, substituting defaults
// for every omitted field.
func (s *IncidentService) resolveParams(req dto.CreateIncidentRequest) (repository.CreateIncidentParams, error) {
	params := repository.CreateIncidentParams{
		CategoryID:       s.cfg.DefaultCategoryID,
		LocationID:       s.cfg.DefaultLocationID,
		IncidentTime:     s.cfg.DefaultTime,
		Details:          req.Details,
		WitnessID:        req.WitnessID,
		ActionsTaken:     req.ActionsTaken,
		FollowUpRequired: req.FollowUpRequired,
		IsConfidential:   req.IsConfidential,
		Urgent:           req.Urgent,
		CreatedBy:        s.cfg.DefaultCreatedBy,
		StatusID:         s.cfg.InitialStatusID,
		StudentID:        req.StudentID,
		PrimaryStudent:   req.PrimaryStudent,
		LinkedStudents:   req.LinkedStudents,
		NotifyStaff:      req.NotifyStaff,
	}

	if req.ID != "" {
		id, err := strconv.ParseInt(req.ID, 10, 64)
		if err != nil || id <= 0 {
			return params, appErrors.Clone(appErrors.ErrValidation, "incident id must be a positive number")
		}
		params.ID = &id
	}
	if req.CategoryID != nil {
		params.CategoryID = *req.CategoryID
	}
	if req.LocationID != nil {
		params.LocationID = *req.LocationID
	}
	if req.CreatedBy != nil {
		params.CreatedBy = *req.CreatedBy
	}
	if req.IncidentTime != "" {
		params.IncidentTime = req.IncidentTime
	}

	params.IncidentDate = time.Now().UTC().Truncate(24 * time.Hour)
	if req.IncidentDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.IncidentDate); err == nil {
			params.IncidentDate = parsed
		}
	}

	for _, marker := range req.BodyMapMarkers {
		params.BodyMapMarkers = append(params.BodyMapMarkers, repository.BodyMapMarkerParams{
			View: marker.View,
			X:    marker.X,
			Y:    marker.Y,
			Note: marker.Note,
		})
	}

	return params, nil
}

// Get reassembles the full incident aggregate. The incident row itself is
// mandatory; every child collection is read best-effort, and the names of
// sections that failed are returned so callers can flag partial data.
func (s *IncidentService) Get(ctx context.Context, rawID string, claims *models.JWTClaims) (*dto.IncidentAggregate, []string, error) {
	incidentID, err := parseIncidentID(rawID)
	if err != nil {
		return nil, nil, err
	}

	if s.cache != nil {
		start := time.Now()
		var cached dto.IncidentAggregate
		cacheErr := s.cache.Get(ctx, repository.IncidentAggregateKey(incidentID), &cached)
		s.metrics.RecordCacheOperation(cacheErr == nil, time.Since(start))
		if cacheErr == nil {
			if err := s.authorizeRead(&cached.Incident, claims); err != nil {
				return nil, nil, err
			}
			return &cached, nil, nil
		}
		if !errors.Is(cacheErr, appErrors.ErrCacheMiss) {
			s.logger.Warn("incident cache read failed", zap.Int64("incident_id", incidentID), zap.Error(cacheErr))
		}
	}

	detail, err := s.repo.GetDetail(ctx, incidentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "incident report not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load incident report")
	}
	if err := s.authorizeRead(detail, claims); err != nil {
		return nil, nil, err
	}

	agg := &dto.IncidentAggregate{
		Incident:          *detail,
		Students:          []dto.LinkedStudent{},
		EmergencyContacts: []models.EmergencyContact{},
		Attachments:       []dto.AttachmentDetail{},
		BodyMap:           []models.BodyMapMark{},
		Notifications:     []dto.NotificationDetail{},
	}
	degraded := make([]string, 0, 5)

	students, err := s.repo.ListStudents(ctx, incidentID)
	if err != nil {
		degraded = append(degraded, SectionStudents)
		s.logger.Warn("aggregate section failed", zap.String("section", SectionStudents), zap.Int64("incident_id", incidentID), zap.Error(err))
	} else if students != nil {
		agg.Students = students
	}

	if len(agg.Students) > 0 {
		contacts, err := s.repo.ListEmergencyContacts(ctx, uniqueStudentIDs(agg.Students))
		if err != nil {
			degraded = append(degraded, SectionEmergencyContacts)
			s.logger.Warn("aggregate section failed", zap.String("section", SectionEmergencyContacts), zap.Int64("incident_id", incidentID), zap.Error(err))
		} else if contacts != nil {
			agg.EmergencyContacts = contacts
		}
	}

	attachments, err := s.repo.ListAttachments(ctx, incidentID)
	if err != nil {
		degraded = append(degraded, SectionAttachments)
		s.logger.Warn("aggregate section failed", zap.String("section", SectionAttachments), zap.Int64("incident_id", incidentID), zap.Error(err))
	} else if attachments != nil {
		agg.Attachments = attachments
	}

	marks, err := s.repo.ListBodyMap(ctx, incidentID)
	if err != nil {
		degraded = append(degraded, SectionBodyMap)
		s.logger.Warn("aggregate section failed", zap.String("section", SectionBodyMap), zap.Int64("incident_id", incidentID), zap.Error(err))
	} else if marks != nil {
		agg.BodyMap = marks
	}

	notifications, err := s.repo.ListNotifications(ctx, incidentID)
	if err != nil {
		degraded = append(degraded, SectionNotifications)
		s.logger.Warn("aggregate section failed", zap.String("section", SectionNotifications), zap.Int64("incident_id", incidentID), zap.Error(err))
	} else if notifications != nil {
		agg.Notifications = notifications
	}

	// Partial aggregates are never cached; the next read retries the
	// degraded sections.
	if s.cache != nil && len(degraded) == 0 {
		start := time.Now()
		if err := s.cache.Set(ctx, repository.IncidentAggregateKey(incidentID), agg, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("incident cache write failed", zap.Int64("incident_id", incidentID), zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(start))
	}

	if len(degraded) == 0 {
		degraded = nil
	}
	return agg, degraded, nil
}

// List returns incident summaries for the browse view. Staff without the
// ADMIN or DSL role never see confidential reports.
func (s *IncidentService) List(ctx context.Context, filter models.IncidentFilter, claims *models.JWTClaims) ([]dto.IncidentDetail, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	if !canViewConfidential(claims) {
		notConfidential := false
		filter.IsConfidential = &notConfidential
	}

	incidents, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list incidents")
	}
	if incidents == nil {
		incidents = []dto.IncidentDetail{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return incidents, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *IncidentService) authorizeRead(detail *dto.IncidentDetail, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if detail.IsConfidential && !canViewConfidential(claims) && claims.UserID != detail.CreatedBy {
		return appErrors.Clone(appErrors.ErrForbidden, "confidential incident")
	}
	return nil
}

func canViewConfidential(claims *models.JWTClaims) bool {
	return claims != nil && (claims.Role == models.RoleAdmin || claims.Role == models.RoleDSL)
}

func parseIncidentID(raw string) (int64, error) {
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "incident id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "incident id must be a positive number")
	}
	return id, nil
}

func uniqueStudentIDs(students []dto.LinkedStudent) []string {
	seen := make(map[string]struct{}, len(students))
	ids := make([]string, 0, len(students))
	for _, s := range students {
		if _, ok := seen[s.StudentID]; ok {
			continue
		}
		seen[s.StudentID] = struct{}{}
		ids = append(ids, s.StudentID)
	}
	return ids
}
