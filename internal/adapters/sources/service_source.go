package sources

import (
	"context"
	"strings"

	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/domain/repositories"
)

// ServiceSource serves fetches straight from the in-process aggregation
// service. Static-file and embedded deployments use it to skip the HTTP hop;
// the records are identical to what the REST API would return.
type ServiceSource struct {
	locations *services.LocationService
}

func NewServiceSource(locations *services.LocationService) *ServiceSource {
	return &ServiceSource{locations: locations}
}

var _ providers.FacilitySource = (*ServiceSource)(nil)

// FetchFacilities routes the query to the matching aggregation operation:
// full-text search when a query string is present, a radius query when the
// caller has a position and a radius, and a plain listing otherwise.
func (s *ServiceSource) FetchFacilities(ctx context.Context, query providers.FacilityQuery) ([]*entities.Facility, error) {
	if strings.TrimSpace(query.Query) != "" {
		params := repositories.SearchParams{
			Query:    query.Query,
			Category: query.Category,
			RadiusKm: query.RadiusKm,
		}
		if query.Center != nil {
			params.Latitude = query.Center.Latitude
			params.Longitude = query.Center.Longitude
		}
		return s.locations.Search(ctx, params)
	}

	if query.Center != nil && query.RadiusKm > 0 {
		return s.locations.Nearby(ctx, services.NearbyParams{
			At:       *query.Center,
			RadiusKm: query.RadiusKm,
			Category: query.Category,
		})
	}

	return s.locations.ListLocations(ctx, query.Category, query.Center)
}
