package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakwood-trust/safeguard-api/internal/models"
)

// LookupRepository reads the reference tables backing the incident form.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository constructs the repository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// Categories returns all incident categories.
func (r *LookupRepository) Categories(ctx context.Context) ([]models.ReferenceItem, error) {
	return r.list(ctx, "incident_categories")
}

// Locations returns all incident locations.
func (r *LookupRepository) Locations(ctx context.Context) ([]models.ReferenceItem, error) {
	return r.list(ctx, "incident_locations")
}

// Statuses returns all incident statuses.
func (r *LookupRepository) Statuses(ctx context.Context) ([]models.ReferenceItem, error) {
	return r.list(ctx, "incident_statuses")
}

func (r *LookupRepository) list(ctx context.Context, table string) ([]models.ReferenceItem, error) {
	query := fmt.Sprintf("SELECT id, name FROM %s ORDER BY id", table)
	var items []models.ReferenceItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return items, nil
}
