package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/dto"
	"github.com/oakwood-trust/safeguard-api/internal/models"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListEmergencyContacts(ctx context.Context, studentID string) ([]models.EmergencyContact, error)
}

// StudentService serves the student directory used when filing incidents.
type StudentService struct {
	repo   studentStore
	logger *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentStore, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// List returns students matching the search filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student with their emergency contacts. A failed contact read
// degrades to an empty list rather than failing the whole response.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	contacts, err := s.repo.ListEmergencyContacts(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load emergency contacts", zap.String("student_id", id), zap.Error(err))
		contacts = nil
	}
	if contacts == nil {
		contacts = []models.EmergencyContact{}
	}

	return &dto.StudentDetail{Student: *student, Contacts: contacts}, nil
}
