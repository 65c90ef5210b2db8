package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/domain/repositories"
)

// Warmed keys mirror the cached catalog decorator's key scheme so the
// read-through path hits what warming wrote.
const (
	warmFacilityKeyPrefix = "loc:facility:"
	warmCatalogListKey    = "loc:catalog:all"
	warmTTLSeconds        = 300
)

// CacheWarmingService pre-fills the catalog cache so the first requests
// after a deploy or an invalidation do not all fall through to the backing
// catalog.
type CacheWarmingService struct {
	catalog repositories.FacilityCatalog
	cache   providers.CacheProvider
	logger  zerolog.Logger
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(catalog repositories.FacilityCatalog, cache providers.CacheProvider, logger zerolog.Logger) *CacheWarmingService {
	return &CacheWarmingService{
		catalog: catalog,
		cache:   cache,
		logger:  logger.With().Str("component", "cache_warming").Logger(),
	}
}

// WarmCache loads the catalog and writes the full list plus every facility
// entry into the cache in one pass.
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	s.logger.Info().Msg("starting cache warming")

	facilities, err := s.catalog.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog for warming: %w", err)
	}

	items := make(map[string][]byte, len(facilities)+1)
	for _, facility := range facilities {
		data, err := json.Marshal(facility)
		if err != nil {
			s.logger.Warn().Err(err).Str("facility_id", facility.ID).Msg("failed to marshal facility")
			continue
		}
		items[warmFacilityKeyPrefix+facility.ID] = data
	}
	if listData, err := json.Marshal(facilities); err == nil {
		items[warmCatalogListKey] = listData
	}

	if len(items) > 0 {
		if err := s.cache.SetMulti(ctx, items, warmTTLSeconds); err != nil {
			return fmt.Errorf("failed to warm catalog cache: %w", err)
		}
	}

	s.logger.Info().Int("entries", len(items)).Msg("cache warming completed")
	return nil
}

// StartPeriodicWarming warms the cache now and then again on every tick
// until the context is canceled. Warming is best-effort; failures are logged
// and retried on the next tick.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if err := s.WarmCache(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				if err := s.WarmCache(ctx); err != nil {
					s.logger.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	s.logger.Info().Dur("interval", interval).Msg("started periodic cache warming")
}

// CacheStats reports whether the warmed list entry is live and how long it
// has left. Used by the health endpoint.
func (s *CacheWarmingService) CacheStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	exists, err := s.cache.Exists(ctx, warmCatalogListKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check warmed catalog entry: %w", err)
	}
	stats["catalog_warm"] = exists

	if exists {
		if ttl, err := s.cache.TTL(ctx, warmCatalogListKey); err == nil {
			stats["catalog_ttl_seconds"] = ttl.Seconds()
		}
	}

	return stats, nil
}
