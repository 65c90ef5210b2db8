package repositories

import (
	"context"

	"github.com/lifexia/healthnav/internal/domain/entities"
)

// FacilityCatalog defines read access to the facility dataset. The catalog
// is replaced wholesale (builtin data, converted files, re-reads); there are
// no per-record writes.
type FacilityCatalog interface {
	// ListAll returns every facility in the catalog
	ListAll(ctx context.Context) ([]*entities.Facility, error)

	// GetByID retrieves a facility by ID
	GetByID(ctx context.Context, id string) (*entities.Facility, error)
}

// SearchParams defines parameters for facility search
type SearchParams struct {
	Query     string
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Category  string
	Limit     int
}

// SearchRepository defines the interface for facility search operations
// (e.g. Typesense). The aggregation service treats it as optional and falls
// back to in-memory matching when it is absent.
type SearchRepository interface {
	// Search searches facilities
	Search(ctx context.Context, params SearchParams) ([]*entities.Facility, error)

	// Index indexes a facility
	Index(ctx context.Context, facility *entities.Facility) error

	// IndexBatch indexes a whole catalog snapshot
	IndexBatch(ctx context.Context, facilities []*entities.Facility) error

	// Delete removes a facility from index
	Delete(ctx context.Context, id string) error
}
