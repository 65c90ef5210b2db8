package catalog_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/repositories"
	apperrors "github.com/lifexia/healthnav/pkg/errors"
	"github.com/lifexia/healthnav/pkg/geo"
)

func TestBuiltinCatalogDataset(t *testing.T) {
	c := catalog.NewBuiltinCatalog()
	ctx := context.Background()

	facilities, err := c.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, facilities, 18)

	hospitals, pharmacies := 0, 0
	seen := make(map[string]bool)
	for _, f := range facilities {
		assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
		assert.True(t, geo.ValidCoordinates(f.Latitude, f.Longitude), "%s has invalid coordinates", f.ID)
		assert.NotEmpty(t, f.Name)
		assert.NotEmpty(t, f.Category)
		switch f.Type {
		case entities.TypeHospital:
			hospitals++
		case entities.TypePharmacy:
			pharmacies++
		default:
			t.Errorf("%s has unknown type %q", f.ID, f.Type)
		}
	}
	assert.Equal(t, 15, hospitals)
	assert.Equal(t, 3, pharmacies)
}

func TestBuiltinCatalogGetByID(t *testing.T) {
	c := catalog.NewBuiltinCatalog()
	ctx := context.Background()

	f, err := c.GetByID(ctx, "h007")
	require.NoError(t, err)
	assert.Equal(t, "Civil Hospital Ahmedabad", f.Name)
	assert.True(t, f.AyushmanCard)
	assert.True(t, f.MaaCard)

	_, err = c.GetByID(ctx, "ghost")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}

func writeCatalogFile(t *testing.T, records []map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileCatalogLoadsConvertedRecords(t *testing.T) {
	path := writeCatalogFile(t, []map[string]interface{}{
		{
			"name":     "Asha Gynec Hospital",
			"type":     "Gynec",
			"category": "Gynecologist",
			"lat":      23.0420,
			"lng":      72.5380,
			"phone":    "079-27492100",
			"address":  "Ghatlodia",
			"distance": "1.8 km",
		},
		{
			"name": "No Coordinates Clinic",
		},
	})

	c, err := catalog.NewFileCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Count(), "the record without coordinates is dropped")

	facilities, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, facilities, 1)

	f := facilities[0]
	assert.Equal(t, "Asha Gynec Hospital", f.Name)
	assert.Equal(t, "Gynecologist", f.Category)
	assert.Equal(t, entities.TypeHospital, f.Type)
	assert.Equal(t, "079-27492100", f.Contact)
	assert.True(t, strings.HasPrefix(f.ID, "loc_"), "missing id is synthesized")
}

func TestFileCatalogReloadKeepsServingOnBadRewrite(t *testing.T) {
	path := writeCatalogFile(t, []map[string]interface{}{
		{"name": "Shalby Hospital", "type": "HOSPITAL", "lat": 23.0130, "lng": 72.5310},
	})

	c, err := catalog.NewFileCatalog(path, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 1, c.Count())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	require.Error(t, c.Reload(context.Background()))
	assert.Equal(t, 1, c.Count(), "a bad rewrite must not wipe the serving catalog")
}

func TestFileCatalogMissingFile(t *testing.T) {
	_, err := catalog.NewFileCatalog(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	require.Error(t, err)
}

// memCache is an in-memory CacheProvider for exercising the cached decorator.
type memCache struct {
	mu             sync.Mutex
	data           map[string][]byte
	deletePatterns []string
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, apperrors.NewNotFoundError("cache miss")
}

func (m *memCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range items {
		m.data[k] = v
	}
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memCache) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletePatterns = append(m.deletePatterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// countingCatalog tracks how often the underlying catalog is hit.
type countingCatalog struct {
	inner repositories.FacilityCatalog
	mu    sync.Mutex
	calls int
}

func (c *countingCatalog) ListAll(ctx context.Context) ([]*entities.Facility, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.ListAll(ctx)
}

func (c *countingCatalog) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.GetByID(ctx, id)
}

func (c *countingCatalog) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCachedCatalogServesFromCache(t *testing.T) {
	cache := newMemCache()
	backing := &countingCatalog{inner: catalog.NewBuiltinCatalog()}
	cached := catalog.NewCachedCatalog(backing, cache, zerolog.Nop())
	ctx := context.Background()

	// Warm the cache directly so the hit path is deterministic.
	data, err := json.Marshal(builtinSubset())
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, "loc:catalog:all", data, 300))

	facilities, err := cached.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, facilities, 1)
	assert.Zero(t, backing.callCount(), "a warm cache must not hit the catalog")
}

func TestCachedCatalogFallsThroughOnMiss(t *testing.T) {
	cache := newMemCache()
	backing := &countingCatalog{inner: catalog.NewBuiltinCatalog()}
	cached := catalog.NewCachedCatalog(backing, cache, zerolog.Nop())
	ctx := context.Background()

	facilities, err := cached.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, facilities, 18)
	assert.Equal(t, 1, backing.callCount())

	f, err := cached.GetByID(ctx, "p001")
	require.NoError(t, err)
	assert.Equal(t, "MedPlus Pharmacy - Navrangpura", f.Name)
}

func TestCachedCatalogInvalidate(t *testing.T) {
	cache := newMemCache()
	cached := catalog.NewCachedCatalog(catalog.NewBuiltinCatalog(), cache, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "loc:catalog:all", []byte("[]"), 300))
	require.NoError(t, cached.Invalidate(ctx))

	_, err := cache.Get(ctx, "loc:catalog:all")
	assert.Error(t, err, "catalog keys must be gone after invalidation")
	require.Len(t, cache.deletePatterns, 1)
	assert.Equal(t, "loc:*", cache.deletePatterns[0])
}

func builtinSubset() []*entities.Facility {
	return []*entities.Facility{
		{ID: "h001", Name: "Elite Orthopaedic & Womens Hospital", Type: entities.TypeHospital, Category: "Multi-Specialty"},
	}
}
