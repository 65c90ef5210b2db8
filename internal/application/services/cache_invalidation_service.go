package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
)

// Cache key families owned by the location feature. loc:* backs the cached
// catalog decorator, http:cache:* the response cache middleware. Response
// cache keys are hashed, so they can only be flushed as a family.
const (
	catalogKeyPattern  = "loc:*"
	responseKeyPattern = "http:cache:*"
)

// CacheInvalidationService clears cache entries when the catalog changes
// underneath them.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus, logger zerolog.Logger) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		logger:   logger.With().Str("component", "cache_invalidation").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for catalog events and invalidating accordingly
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCatalogUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to catalog updates: %w", err)
	}

	go s.processEvents(eventChan)
	s.logger.Info().Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.logger.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.CatalogEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event := <-eventChan:
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent handles a single catalog event
func (s *CacheInvalidationService) handleEvent(event *entities.CatalogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info().
		Str("event_id", event.ID).
		Str("type", string(event.EventType)).
		Str("source", event.Source).
		Int("count", event.Count).
		Msg("processing catalog event")

	switch event.EventType {
	case entities.CatalogEventTypeReloaded:
		// The dataset itself changed; nothing cached survives.
		if err := s.InvalidateAll(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate caches after catalog reload")
		}
	case entities.CatalogEventTypeIndexed:
		// Catalog entries are unchanged but search responses may now rank
		// differently.
		if err := s.cache.DeletePattern(ctx, responseKeyPattern); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate response cache after index sync")
		}
	}
}

// InvalidateAll clears the catalog cache and the response cache. Meant for
// catalog reloads and manual maintenance.
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	for _, pattern := range []string{catalogKeyPattern, responseKeyPattern} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
		s.logger.Info().Str("pattern", pattern).Msg("invalidated cache pattern")
	}
	return nil
}

// InvalidateResponses clears only the response cache, leaving warmed catalog
// entries in place.
func (s *CacheInvalidationService) InvalidateResponses(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, responseKeyPattern); err != nil {
		return fmt.Errorf("failed to invalidate response cache: %w", err)
	}
	return nil
}
