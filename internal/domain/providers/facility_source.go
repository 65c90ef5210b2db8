package providers

import (
	"context"

	"github.com/lifexia/healthnav/internal/domain/entities"
)

// FacilityQuery describes one fetch against a facility source. A nil Center
// means the caller has no position yet; sources must then omit distance and
// travel-time fields rather than estimate them.
type FacilityQuery struct {
	Center   *entities.Location
	Category string  // "", "all" and "all resources" mean unfiltered
	Query    string  // free-text search; empty means plain listing
	RadiusKm float64 // 0 means source default
}

// FacilitySource is the single capability the map session fetches through.
// Implementations exist for the aggregation REST API, the in-process
// service, and places-style lookup APIs; all return canonical records so the
// session never sees source-specific shapes.
type FacilitySource interface {
	FetchFacilities(ctx context.Context, query FacilityQuery) ([]*entities.Facility, error)
}
