package sources

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/infrastructure/clients/places"
	"github.com/lifexia/healthnav/internal/normalize"
	"github.com/lifexia/healthnav/pkg/errors"
	"github.com/lifexia/healthnav/pkg/geo"
)

// defaultPlacesRadiusM is the nearby-search radius when the query does not
// carry one, matching the upstream API default.
const defaultPlacesRadiusM = 5000

// PlacesSource fetches facilities from a places lookup API. Results are
// thinner than catalog records (no schemes, no benefits) but cover areas the
// curated dataset does not.
type PlacesSource struct {
	client places.Client
	logger zerolog.Logger
}

func NewPlacesSource(client places.Client, logger zerolog.Logger) *PlacesSource {
	return &PlacesSource{
		client: client,
		logger: logger.With().Str("component", "places_source").Logger(),
	}
}

var _ providers.FacilitySource = (*PlacesSource)(nil)

// FetchFacilities looks places up and normalizes them. A query string runs a
// text search; otherwise the caller position anchors a nearby search for the
// place type the category implies. Distances are computed locally since the
// upstream does not report them.
func (s *PlacesSource) FetchFacilities(ctx context.Context, query providers.FacilityQuery) ([]*entities.Facility, error) {
	results, placeType, err := s.lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	records := make([]normalize.Record, 0, len(results))
	for _, place := range results {
		records = append(records, placeRecord(place, placeType))
	}

	facilities, dropped := normalize.NormalizeAll(records, s.logger)
	if dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Int("kept", len(facilities)).
			Msg("Dropped place results during normalization")
	}

	if query.Center != nil {
		at := *query.Center
		for _, f := range facilities {
			d := geo.DistanceKm(at.Latitude, at.Longitude, f.Latitude, f.Longitude)
			t := geo.EstimateTravelMinutes(d)
			f.Distance = &d
			f.EstimatedTime = &t
		}
		sort.SliceStable(facilities, func(i, j int) bool {
			return *facilities[i].Distance < *facilities[j].Distance
		})
	}

	return facilities, nil
}

func (s *PlacesSource) lookup(ctx context.Context, query providers.FacilityQuery) ([]places.Place, string, error) {
	placeType := placeTypeFor(query.Category)

	if strings.TrimSpace(query.Query) != "" {
		req := places.TextSearchRequest{Query: query.Query}
		if query.Center != nil {
			req.Latitude = query.Center.Latitude
			req.Longitude = query.Center.Longitude
			req.RadiusM = radiusMeters(query.RadiusKm)
		}
		results, err := s.client.TextSearch(ctx, req)
		if err != nil {
			return nil, "", errors.NewExternalError("places text search failed", err)
		}
		return results, placeType, nil
	}

	if query.Center == nil {
		return nil, "", errors.NewValidationError("places lookup requires a position or a query")
	}

	results, err := s.client.NearbySearch(ctx, places.NearbySearchRequest{
		Latitude:  query.Center.Latitude,
		Longitude: query.Center.Longitude,
		RadiusM:   radiusMeters(query.RadiusKm),
		Type:      placeType,
	})
	if err != nil {
		return nil, "", errors.NewExternalError("places nearby search failed", err)
	}
	return results, placeType, nil
}

// placeRecord maps one place row into the raw record shape the normalizer
// accepts: the place id becomes the record id, the requested place type
// doubles as category, and vicinity becomes the address.
func placeRecord(place places.Place, placeType string) normalize.Record {
	return normalize.Record{
		ID:       place.PlaceID,
		Name:     place.Name,
		Type:     titleCase(placeType),
		Category: titleCase(placeType),
		Lat:      place.Geometry.Location.Lat,
		Lng:      place.Geometry.Location.Lng,
		Address:  place.Address(),
		Rating:   place.Rating,
		IsOpen:   place.OpenNow(),
	}
}

// placeTypeFor picks the upstream place type for a category filter.
// Anything that does not read as a pharmacy maps to hospital, the broadest
// medical type the upstream knows.
func placeTypeFor(category string) string {
	c := strings.ToLower(category)
	if strings.Contains(c, "pharma") || strings.Contains(c, "chemist") || strings.Contains(c, "medical store") {
		return "pharmacy"
	}
	return "hospital"
}

func radiusMeters(radiusKm float64) int {
	if radiusKm <= 0 {
		return defaultPlacesRadiusM
	}
	return int(radiusKm * 1000)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
