package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	apperrors "github.com/lifexia/healthnav/pkg/errors"
)

// Ahmedabad city center, the default coordinate for unlocated callers.
var cityCenter = entities.Location{Latitude: 23.0225, Longitude: 72.5714}

type stubSearchRepo struct {
	results  []*entities.Facility
	err      error
	indexed  []*entities.Facility
	searches int
	last     repositories.SearchParams
}

func (s *stubSearchRepo) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Facility, error) {
	s.searches++
	s.last = params
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubSearchRepo) Index(ctx context.Context, facility *entities.Facility) error {
	s.indexed = append(s.indexed, facility)
	return nil
}

func (s *stubSearchRepo) IndexBatch(ctx context.Context, facilities []*entities.Facility) error {
	s.indexed = append(s.indexed, facilities...)
	return nil
}

func (s *stubSearchRepo) Delete(ctx context.Context, id string) error { return nil }

func newLocationService(searchRepo repositories.SearchRepository) *services.LocationService {
	return services.NewLocationService(
		catalog.NewBuiltinCatalog(), searchRepo, nil, services.LocationConfig{}, zerolog.Nop(),
	)
}

func facilityIDs(facilities []*entities.Facility) []string {
	ids := make([]string, 0, len(facilities))
	for _, f := range facilities {
		ids = append(ids, f.ID)
	}
	return ids
}

func assertNearestFirst(t *testing.T, facilities []*entities.Facility) {
	t.Helper()
	for i, f := range facilities {
		require.NotNil(t, f.Distance, "facility %s should carry a distance", f.ID)
		require.NotNil(t, f.EstimatedTime, "facility %s should carry a travel estimate", f.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, *f.Distance, *facilities[i-1].Distance)
		}
	}
}

func TestLocationService_ListLocations_WholeCatalogWithoutCenter(t *testing.T) {
	svc := newLocationService(nil)

	got, err := svc.ListLocations(context.Background(), "", nil)

	require.NoError(t, err)
	assert.Len(t, got, 18)
	for _, f := range got {
		assert.Nil(t, f.Distance, "no caller position, no distance for %s", f.ID)
		assert.Nil(t, f.EstimatedTime)
	}
}

func TestLocationService_ListLocations_CategoryNarrows(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		category string
		count    int
	}{
		{name: "pharmacy term", category: "Pharmacy", count: 3},
		{name: "specialty matches specialty and multi-specialty", category: "Specialty", count: 13},
		{name: "government", category: "Government", count: 1},
		{name: "all resources passes everything", category: "All Resources", count: 18},
		{name: "all passes everything", category: "all", count: 18},
		{name: "blank passes everything", category: "  ", count: 18},
		{name: "unknown matches nothing", category: "Veterinary", count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListLocations(ctx, tt.category, nil)
			require.NoError(t, err)
			assert.Len(t, got, tt.count)
		})
	}
}

func TestLocationService_ListLocations_CenterSortsAndLeavesCatalogAlone(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	got, err := svc.ListLocations(ctx, "", &cityCenter)

	require.NoError(t, err)
	require.Len(t, got, 18)
	assertNearestFirst(t, got)
	assert.Equal(t, "h004", got[0].ID, "Star Hospital is nearest to the city center")

	// Enrichment clones; the shared catalog records stay untouched.
	fresh, err := svc.GetByID(ctx, "h004")
	require.NoError(t, err)
	assert.Nil(t, fresh.Distance)
}

func TestLocationService_Nearby_CutsAtRadius(t *testing.T) {
	svc := newLocationService(nil)

	got, err := svc.Nearby(context.Background(), services.NearbyParams{At: cityCenter, RadiusKm: 2})

	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"h001", "h002", "h003", "h004", "p001", "p002"},
		facilityIDs(got),
	)
	assertNearestFirst(t, got)
	for _, f := range got {
		assert.LessOrEqual(t, *f.Distance, 2.0)
	}
}

func TestLocationService_NearbyHospitals_DefaultRadiusAndFilters(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	all, err := svc.NearbyHospitals(ctx, services.HospitalParams{At: cityCenter})
	require.NoError(t, err)
	assert.Len(t, all, 15, "default 20 km radius covers every hospital, pharmacies excluded")

	ortho, err := svc.NearbyHospitals(ctx, services.HospitalParams{At: cityCenter, Speciality: "ortho"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h001", "h003", "h011"}, facilityIDs(ortho))

	bothCards, err := svc.NearbyHospitals(ctx, services.HospitalParams{At: cityCenter, Ayushman: true, Maa: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h002", "h004", "h006", "h007", "h015"}, facilityIDs(bothCards))

	emergency, err := svc.NearbyHospitals(ctx, services.HospitalParams{At: cityCenter, Emergency: true})
	require.NoError(t, err)
	assert.Len(t, emergency, 14)
	assert.NotContains(t, facilityIDs(emergency), "h014")
}

func TestLocationService_NearbyPharmacies_OpenNow(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	all, err := svc.NearbyPharmacies(ctx, services.PharmacyParams{At: cityCenter})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p001", "p002", "p003"}, facilityIDs(all))

	open, err := svc.NearbyPharmacies(ctx, services.PharmacyParams{At: cityCenter, OpenNow: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"p002"}, facilityIDs(open), "only the 24x7 pharmacy qualifies")
}

func TestLocationService_Search_InMemoryWithoutIndex(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	got, err := svc.Search(ctx, repositories.SearchParams{Query: "cancer"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h009", "h012"}, facilityIDs(got),
		"matches the oncology centre by name and Zydus by benefit text")

	limited, err := svc.Search(ctx, repositories.SearchParams{
		Query:     "orthopaedic",
		Latitude:  cityCenter.Latitude,
		Longitude: cityCenter.Longitude,
		Limit:     2,
	})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assertNearestFirst(t, limited)

	none, err := svc.Search(ctx, repositories.SearchParams{Query: "veterinary"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocationService_Search_BlankQueryRejected(t *testing.T) {
	svc := newLocationService(nil)

	_, err := svc.Search(context.Background(), repositories.SearchParams{Query: "   "})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestLocationService_Search_PrefersIndexWhenHealthy(t *testing.T) {
	indexed := &entities.Facility{ID: "h012", Name: "HCG Cancer Centre"}
	repo := &stubSearchRepo{results: []*entities.Facility{indexed}}
	svc := newLocationService(repo)

	got, err := svc.Search(context.Background(), repositories.SearchParams{Query: "cancer", Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, []*entities.Facility{indexed}, got)
	assert.Equal(t, 1, repo.searches)
	assert.Equal(t, "cancer", repo.last.Query)
}

func TestLocationService_Search_FallsBackWhenIndexFails(t *testing.T) {
	repo := &stubSearchRepo{err: errors.New("connection refused")}
	svc := newLocationService(repo)

	got, err := svc.Search(context.Background(), repositories.SearchParams{Query: "cancer"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"h009", "h012"}, facilityIDs(got))
	assert.Equal(t, 1, repo.searches, "index was tried before falling back")
}

func TestLocationService_Directions(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	info, err := svc.Directions(ctx, "h007", &cityCenter)
	require.NoError(t, err)
	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&destination=23.045,72.598&destination_place_id=Civil+Hospital+Ahmedabad",
		info.URL,
	)
	require.NotNil(t, info.Facility.Distance)
	require.NotNil(t, info.Facility.EstimatedTime)

	unlocated, err := svc.Directions(ctx, "h007", nil)
	require.NoError(t, err)
	assert.Nil(t, unlocated.Facility.Distance)

	_, err = svc.Directions(ctx, "nope", nil)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func TestLocationService_Emergency(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	info, err := svc.Emergency(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "108", info.Number)
	assert.Len(t, info.Hospitals, 14)
	assert.NotContains(t, facilityIDs(info.Hospitals), "h014")

	located, err := svc.Emergency(ctx, &cityCenter)
	require.NoError(t, err)
	assertNearestFirst(t, located.Hospitals)
	assert.Equal(t, "h004", located.Hospitals[0].ID)
}

func TestLocationService_CardFacilities(t *testing.T) {
	svc := newLocationService(nil)
	ctx := context.Background()

	ayushman, err := svc.CardFacilities(ctx, "ayushman", nil)
	require.NoError(t, err)
	assert.Len(t, ayushman, 14)

	maa, err := svc.CardFacilities(ctx, "maa", nil)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"h002", "h004", "h005", "h006", "h007", "h015"},
		facilityIDs(maa),
	)

	any, err := svc.CardFacilities(ctx, "", &cityCenter)
	require.NoError(t, err)
	assert.Len(t, any, 15, "every hospital takes at least one card, pharmacies none")
	assertNearestFirst(t, any)

	_, err = svc.CardFacilities(ctx, "platinum", nil)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
}

func TestLocationService_Categories(t *testing.T) {
	svc := newLocationService(nil)

	got, err := svc.Categories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []services.CategoryCount{
		{Name: "All Resources", Count: 18},
		{Name: "General", Count: 1},
		{Name: "Government", Count: 1},
		{Name: "Multi-Specialty", Count: 8},
		{Name: "Retail Pharmacy", Count: 3},
		{Name: "Specialty", Count: 5},
	}, got)
}

func TestLocationService_ReindexAll(t *testing.T) {
	repo := &stubSearchRepo{}
	svc := newLocationService(repo)

	count, err := svc.ReindexAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18, count)
	assert.Len(t, repo.indexed, 18)

	_, err = newLocationService(nil).ReindexAll(context.Background())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeUnavailable, appErr.Type)
}
