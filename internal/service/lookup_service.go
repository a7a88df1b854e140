package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/oakwood-trust/safeguard-api/internal/models"
	appErrors "github.com/oakwood-trust/safeguard-api/pkg/errors"
)

type lookupStore interface {
	Categories(ctx context.Context) ([]models.ReferenceItem, error)
	Locations(ctx context.Context) ([]models.ReferenceItem, error)
	Statuses(ctx context.Context) ([]models.ReferenceItem, error)
}

// Reference data changes rarely, so cached copies live longer than
// incident aggregates.
const lookupCacheTTL = time.Hour

// LookupService serves the reference lists backing the incident form.
type LookupService struct {
	repo   lookupStore
	cache  aggregateCache
	logger *zap.Logger
}

// NewLookupService constructs a LookupService.
func NewLookupService(repo lookupStore, cache aggregateCache, logger *zap.Logger) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupService{repo: repo, cache: cache, logger: logger}
}

// Categories lists incident categories.
func (s *LookupService) Categories(ctx context.Context) ([]models.ReferenceItem, error) {
	return s.cached(ctx, "lookup:categories", s.repo.Categories)
}

// Locations lists incident locations.
func (s *LookupService) Locations(ctx context.Context) ([]models.ReferenceItem, error) {
	return s.cached(ctx, "lookup:locations", s.repo.Locations)
}

// Statuses lists incident statuses.
func (s *LookupService) Statuses(ctx context.Context) ([]models.ReferenceItem, error) {
	return s.cached(ctx, "lookup:statuses", s.repo.Statuses)
}

func (s *LookupService) cached(ctx context.Context, key string, load func(context.Context) ([]models.ReferenceItem, error)) ([]models.ReferenceItem, error) {
	if s.cache != nil {
		var items []models.ReferenceItem
		if err := s.cache.Get(ctx, key, &items); err == nil {
			return items, nil
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reference data")
	}
	if items == nil {
		items = []models.ReferenceItem{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, items, lookupCacheTTL); err != nil {
			s.logger.Warn("failed to cache reference data", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}
