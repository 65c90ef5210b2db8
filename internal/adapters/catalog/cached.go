package catalog

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/domain/repositories"
)

// Cache TTLs (in seconds)
const (
	catalogListTTL  = 300 // 5 minutes for the full dataset
	facilityByIDTTL = 300 // 5 minutes for single facilities
)

func facilityCacheKey(id string) string {
	return "loc:facility:" + id
}

const catalogListCacheKey = "loc:catalog:all"

// CachedCatalog wraps a FacilityCatalog with read-through caching. Cache
// writes happen asynchronously so a slow cache never delays a response, and
// every cache failure degrades to the underlying catalog.
type CachedCatalog struct {
	catalog repositories.FacilityCatalog
	cache   providers.CacheProvider
	logger  zerolog.Logger
}

func NewCachedCatalog(catalog repositories.FacilityCatalog, cache providers.CacheProvider, logger zerolog.Logger) *CachedCatalog {
	return &CachedCatalog{
		catalog: catalog,
		cache:   cache,
		logger:  logger.With().Str("component", "cached_catalog").Logger(),
	}
}

var _ repositories.FacilityCatalog = (*CachedCatalog)(nil)

// ListAll returns the catalog, from cache when warm.
func (c *CachedCatalog) ListAll(ctx context.Context) ([]*entities.Facility, error) {
	if cached, err := c.cache.Get(ctx, catalogListCacheKey); err == nil {
		var facilities []*entities.Facility
		if err := json.Unmarshal(cached, &facilities); err == nil {
			return facilities, nil
		}
		c.logger.Warn().Err(err).Msg("Failed to unmarshal cached catalog")
	}

	facilities, err := c.catalog.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(facilities); err == nil {
			if err := c.cache.Set(bgCtx, catalogListCacheKey, data, catalogListTTL); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache catalog")
			}
		}
	}()

	return facilities, nil
}

// GetByID retrieves one facility, from cache when warm.
func (c *CachedCatalog) GetByID(ctx context.Context, id string) (*entities.Facility, error) {
	cacheKey := facilityCacheKey(id)

	if cached, err := c.cache.Get(ctx, cacheKey); err == nil {
		var facility entities.Facility
		if err := json.Unmarshal(cached, &facility); err == nil {
			return &facility, nil
		}
		c.logger.Warn().Err(err).Str("facility_id", id).Msg("Failed to unmarshal cached facility")
	}

	facility, err := c.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(facility); err == nil {
			if err := c.cache.Set(bgCtx, cacheKey, data, facilityByIDTTL); err != nil {
				c.logger.Warn().Err(err).Str("facility_id", id).Msg("Failed to cache facility")
			}
		}
	}()

	return facility, nil
}

// Invalidate drops every catalog-derived cache entry. The cache invalidation
// service calls it when a catalog update event arrives.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.cache.DeletePattern(ctx, "loc:*")
}
