package services

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
	apperrors "github.com/lifexia/healthnav/pkg/errors"
	"github.com/lifexia/healthnav/pkg/geo"
)

// Card kinds accepted by CardFacilities.
const (
	CardAyushman = "ayushman"
	CardMaa      = "maa"
	CardAny      = "any"
)

// CategoryAll is the pseudo-category meaning "no narrowing". It is prepended
// to the category listing and accepted (case-insensitively) by every
// category parameter.
const CategoryAll = "All Resources"

// LocationConfig carries the tunables of the aggregation service. Zero
// values fall back to the defaults below.
type LocationConfig struct {
	HospitalRadiusKm float64
	PharmacyRadiusKm float64
	EmergencyNumber  string
}

const (
	defaultHospitalRadiusKm = 20.0
	defaultPharmacyRadiusKm = 10.0
	defaultEmergencyNumber  = "108"
)

func (c LocationConfig) withDefaults() LocationConfig {
	if c.HospitalRadiusKm <= 0 {
		c.HospitalRadiusKm = defaultHospitalRadiusKm
	}
	if c.PharmacyRadiusKm <= 0 {
		c.PharmacyRadiusKm = defaultPharmacyRadiusKm
	}
	if c.EmergencyNumber == "" {
		c.EmergencyNumber = defaultEmergencyNumber
	}
	return c
}

// NearbyParams narrows a radius query around a caller position.
type NearbyParams struct {
	At       entities.Location
	RadiusKm float64 // 0 means the hospital default
	Category string
}

// HospitalParams narrows the hospital-side nearby query. Flag filters are
// AND-combined.
type HospitalParams struct {
	At         entities.Location
	RadiusKm   float64 // 0 means the hospital default
	Speciality string
	Ayushman   bool
	Maa        bool
	Emergency  bool
}

// PharmacyParams narrows the pharmacy nearby query.
type PharmacyParams struct {
	At       entities.Location
	RadiusKm float64 // 0 means the pharmacy default
	OpenNow  bool
}

// DirectionsInfo is the directions payload: the facility (with distance and
// travel time when the caller position is known) and the external maps link.
type DirectionsInfo struct {
	Facility *entities.Facility `json:"facility"`
	URL      string             `json:"directions_url"`
}

// EmergencyInfo is the emergency payload: who to call and where to go.
type EmergencyInfo struct {
	Number    string               `json:"emergency_number"`
	Hospitals []*entities.Facility `json:"hospitals"`
}

// CategoryCount pairs a catalog category with how many facilities carry it.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LocationService aggregates the facility catalog for every consumer: the
// HTTP API, the in-process source adapter, and the supporting binaries. The
// search repository is optional; when it is absent or failing, full-text
// search falls back to in-memory matching over the catalog.
type LocationService struct {
	catalog    repositories.FacilityCatalog
	searchRepo repositories.SearchRepository
	metrics    *observability.Metrics
	cfg        LocationConfig
	logger     zerolog.Logger
}

// NewLocationService creates a new location aggregation service. searchRepo
// and metrics may be nil.
func NewLocationService(
	catalog repositories.FacilityCatalog,
	searchRepo repositories.SearchRepository,
	metrics *observability.Metrics,
	cfg LocationConfig,
	logger zerolog.Logger,
) *LocationService {
	return &LocationService{
		catalog:    catalog,
		searchRepo: searchRepo,
		metrics:    metrics,
		cfg:        cfg.withDefaults(),
		logger:     logger.With().Str("component", "location_service").Logger(),
	}
}

// ListLocations returns the whole catalog, optionally narrowed by category.
// When the caller position is known the results carry distance and travel
// time and are sorted nearest first.
func (s *LocationService) ListLocations(ctx context.Context, category string, at *entities.Location) ([]*entities.Facility, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if !isUnfilteredCategory(category) {
		facilities = filterFacilities(facilities, func(f *entities.Facility) bool {
			return matchesCategoryTerm(f, category)
		})
	}
	if at != nil {
		facilities = enrichAndSort(facilities, *at)
	}
	return facilities, nil
}

// GetByID retrieves a single facility.
func (s *LocationService) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	return s.catalog.GetByID(ctx, id)
}

// Nearby returns the facilities within the given radius, nearest first.
func (s *LocationService) Nearby(ctx context.Context, params NearbyParams) ([]*entities.Facility, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if !isUnfilteredCategory(params.Category) {
		facilities = filterFacilities(facilities, func(f *entities.Facility) bool {
			return matchesCategoryTerm(f, params.Category)
		})
	}
	return withinRadius(facilities, params.At, s.radiusOr(params.RadiusKm, s.cfg.HospitalRadiusKm)), nil
}

// NearbyHospitals returns hospital-side facilities (everything that is not a
// pharmacy) within the radius, after applying the speciality and card
// filters.
func (s *LocationService) NearbyHospitals(ctx context.Context, params HospitalParams) ([]*entities.Facility, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	hospitals := filterFacilities(facilities, func(f *entities.Facility) bool {
		if f.IsPharmacy() {
			return false
		}
		if params.Speciality != "" && !containsFold(f.Speciality, params.Speciality) {
			return false
		}
		if params.Ayushman && !f.AyushmanCard {
			return false
		}
		if params.Maa && !f.MaaCard {
			return false
		}
		if params.Emergency && !f.Emergency {
			return false
		}
		return true
	})
	return withinRadius(hospitals, params.At, s.radiusOr(params.RadiusKm, s.cfg.HospitalRadiusKm)), nil
}

// NearbyPharmacies returns pharmacies within the radius, optionally only the
// ones known to be open right now.
func (s *LocationService) NearbyPharmacies(ctx context.Context, params PharmacyParams) ([]*entities.Facility, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	pharmacies := filterFacilities(facilities, func(f *entities.Facility) bool {
		if !f.IsPharmacy() {
			return false
		}
		if params.OpenNow && !f.Open24x7 && !f.OpenNow {
			return false
		}
		return true
	})
	return withinRadius(pharmacies, params.At, s.radiusOr(params.RadiusKm, s.cfg.PharmacyRadiusKm)), nil
}

// Search runs a full-text query through the search index when one is
// configured, falling back to in-memory substring matching over the catalog
// when the index is absent or failing.
func (s *LocationService) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Facility, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, apperrors.NewValidationError("search query is required")
	}
	if s.searchRepo != nil {
		results, err := s.searchRepo.Search(ctx, params)
		if err == nil {
			return results, nil
		}
		s.logger.Warn().Err(err).Str("query", params.Query).
			Msg("search index unavailable, falling back to in-memory matching")
		observability.RecordSearchFallback(ctx, s.metrics)
	}
	return s.searchInMemory(ctx, params)
}

func (s *LocationService) searchInMemory(ctx context.Context, params repositories.SearchParams) ([]*entities.Facility, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(params.Query))
	matched := filterFacilities(facilities, func(f *entities.Facility) bool {
		if !isUnfilteredCategory(params.Category) && !matchesCategoryTerm(f, params.Category) {
			return false
		}
		return strings.Contains(searchableText(f), query)
	})
	if params.Latitude != 0 || params.Longitude != 0 {
		at := entities.Location{Latitude: params.Latitude, Longitude: params.Longitude}
		if params.RadiusKm > 0 {
			matched = withinRadius(matched, at, params.RadiusKm)
		} else {
			matched = enrichAndSort(matched, at)
		}
	}
	if params.Limit > 0 && len(matched) > params.Limit {
		matched = matched[:params.Limit]
	}
	return matched, nil
}

// Directions returns the facility together with its external maps link. When
// the caller position is known the facility carries distance and travel
// time.
func (s *LocationService) Directions(ctx context.Context, facilityID string, from *entities.Location) (*DirectionsInfo, error) {
	facility, err := s.catalog.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if from != nil {
		facility = withDistance(facility, *from)
	}
	return &DirectionsInfo{
		Facility: facility,
		URL:      geo.DirectionsURL(facility.Name, facility.Latitude, facility.Longitude),
	}, nil
}

// Emergency returns the national emergency number and the emergency-capable
// hospitals, narrowed to the hospital radius and sorted nearest first when
// the caller position is known.
func (s *LocationService) Emergency(ctx context.Context, at *entities.Location) (*EmergencyInfo, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	hospitals := filterFacilities(facilities, func(f *entities.Facility) bool {
		return !f.IsPharmacy() && f.Emergency
	})
	if at != nil {
		hospitals = withinRadius(hospitals, *at, s.cfg.HospitalRadiusKm)
	}
	return &EmergencyInfo{
		Number:    s.cfg.EmergencyNumber,
		Hospitals: hospitals,
	}, nil
}

// CardFacilities returns the facilities accepting a government health card.
// card is "ayushman", "maa", or "any" (empty counts as any); anything else
// is a validation error.
func (s *LocationService) CardFacilities(ctx context.Context, card string, at *entities.Location) ([]*entities.Facility, error) {
	var keep func(*entities.Facility) bool
	switch strings.ToLower(strings.TrimSpace(card)) {
	case CardAyushman:
		keep = func(f *entities.Facility) bool { return f.AyushmanCard }
	case CardMaa:
		keep = func(f *entities.Facility) bool { return f.MaaCard }
	case CardAny, "":
		keep = func(f *entities.Facility) bool { return f.AyushmanCard || f.MaaCard }
	default:
		return nil, apperrors.NewValidationError("unknown card type: " + card)
	}

	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := filterFacilities(facilities, keep)
	if at != nil {
		matched = enrichAndSort(matched, *at)
	}
	return matched, nil
}

// Categories returns the distinct catalog categories with their facility
// counts, sorted by name and prefixed by the All Resources pseudo-category.
func (s *LocationService) Categories(ctx context.Context) ([]CategoryCount, error) {
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, f := range facilities {
		if f.Category == "" {
			continue
		}
		counts[f.Category]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]CategoryCount, 0, len(names)+1)
	out = append(out, CategoryCount{Name: CategoryAll, Count: len(facilities)})
	for _, name := range names {
		out = append(out, CategoryCount{Name: name, Count: counts[name]})
	}
	return out, nil
}

// ReindexAll pushes the whole catalog into the search index. It returns the
// number of facilities indexed.
func (s *LocationService) ReindexAll(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, apperrors.NewUnavailableError("search index is not configured")
	}
	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.searchRepo.IndexBatch(ctx, facilities); err != nil {
		return 0, err
	}
	return len(facilities), nil
}

func (s *LocationService) radiusOr(radiusKm, fallback float64) float64 {
	if radiusKm > 0 {
		return radiusKm
	}
	return fallback
}

// isUnfilteredCategory reports whether the category parameter means "do not
// narrow at all".
func isUnfilteredCategory(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	return c == "" || c == "all" || c == strings.ToLower(CategoryAll)
}

// matchesCategoryTerm reports whether the term matches the facility's
// category, type, or speciality, case-insensitively, as an exact value or a
// substring.
func matchesCategoryTerm(f *entities.Facility, term string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return true
	}
	for _, field := range []string{f.Category, f.Type, f.Speciality} {
		v := strings.ToLower(field)
		if v != "" && strings.Contains(v, t) {
			return true
		}
	}
	return false
}

// searchableText flattens the fields a free-text query runs against, the
// same set the index schema covers.
func searchableText(f *entities.Facility) string {
	parts := []string{f.Name, f.Speciality, f.Category, f.Address, f.Benefit}
	parts = append(parts, f.Services...)
	return strings.ToLower(strings.Join(parts, " "))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func filterFacilities(facilities []*entities.Facility, keep func(*entities.Facility) bool) []*entities.Facility {
	out := make([]*entities.Facility, 0, len(facilities))
	for _, f := range facilities {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// withDistance returns a copy of the facility carrying distance and travel
// time from the given point. Catalog records are shared across requests and
// are never mutated in place.
func withDistance(f *entities.Facility, at entities.Location) *entities.Facility {
	clone := *f
	d := geo.DistanceKm(at.Latitude, at.Longitude, f.Latitude, f.Longitude)
	t := geo.EstimateTravelMinutes(d)
	clone.Distance = &d
	clone.EstimatedTime = &t
	return &clone
}

func enrichAndSort(facilities []*entities.Facility, at entities.Location) []*entities.Facility {
	out := make([]*entities.Facility, 0, len(facilities))
	for _, f := range facilities {
		out = append(out, withDistance(f, at))
	}
	sortByDistance(out)
	return out
}

func withinRadius(facilities []*entities.Facility, at entities.Location, radiusKm float64) []*entities.Facility {
	out := make([]*entities.Facility, 0, len(facilities))
	for _, f := range facilities {
		enriched := withDistance(f, at)
		if *enriched.Distance <= radiusKm {
			out = append(out, enriched)
		}
	}
	sortByDistance(out)
	return out
}

// sortByDistance orders nearest first; records without a distance keep their
// relative order at the end.
func sortByDistance(facilities []*entities.Facility) {
	sort.SliceStable(facilities, func(i, j int) bool {
		di, dj := facilities[i].Distance, facilities[j].Distance
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
}
