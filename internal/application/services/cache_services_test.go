package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
)

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu       sync.RWMutex
	data     map[string][]byte
	patterns []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if val, ok := m.data[key]; ok {
		return val, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) GetMulti(ctx context.Context, keys []string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]byte)
	for _, key := range keys {
		if val, ok := m.data[key]; ok {
			result[key] = val
		}
	}
	return result, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range items {
		m.data[key] = value
	}
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockCache) DeletePattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.data[key]; ok {
		return 5 * time.Minute, nil
	}
	return 0, nil
}

func (m *mockCache) has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}

func (m *mockCache) deletedPatterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.patterns...)
}

type mockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.CatalogEvent
}

func newMockEventBus() *mockEventBus {
	return &mockEventBus{subscribers: make(map[string][]chan *entities.CatalogEvent)}
}

func (m *mockEventBus) Publish(ctx context.Context, channel string, event *entities.CatalogEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *mockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.CatalogEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.CatalogEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *mockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *mockEventBus) Close() error { return nil }

func (m *mockEventBus) subscriberCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

func TestCacheInvalidationService_SubscribesToCatalogUpdates(t *testing.T) {
	bus := newMockEventBus()
	svc := services.NewCacheInvalidationService(newMockCache(), bus, zerolog.Nop())

	require.NoError(t, svc.Start())
	defer svc.Stop()

	assert.Equal(t, 1, bus.subscriberCount(providers.EventChannelCatalogUpdates))
}

func TestCacheInvalidationService_ReloadFlushesCatalogAndResponses(t *testing.T) {
	cache := newMockCache()
	bus := newMockEventBus()
	svc := services.NewCacheInvalidationService(cache, bus, zerolog.Nop())
	require.NoError(t, svc.Start())
	defer svc.Stop()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "loc:catalog:all", []byte("x"), 300))
	require.NoError(t, cache.Set(ctx, "http:cache:abcd", []byte("y"), 300))
	require.NoError(t, cache.Set(ctx, "unrelated:key", []byte("z"), 300))

	event := entities.NewCatalogEvent(entities.CatalogEventTypeReloaded, "file", 18)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelCatalogUpdates, event))

	require.Eventually(t, func() bool {
		return !cache.has("loc:catalog:all") && !cache.has("http:cache:abcd")
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, cache.has("unrelated:key"), "unrelated key families are left alone")
	assert.Equal(t, []string{"loc:*", "http:cache:*"}, cache.deletedPatterns())
}

func TestCacheInvalidationService_IndexEventFlushesResponsesOnly(t *testing.T) {
	cache := newMockCache()
	bus := newMockEventBus()
	svc := services.NewCacheInvalidationService(cache, bus, zerolog.Nop())
	require.NoError(t, svc.Start())
	defer svc.Stop()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "loc:catalog:all", []byte("x"), 300))
	require.NoError(t, cache.Set(ctx, "http:cache:abcd", []byte("y"), 300))

	event := entities.NewCatalogEvent(entities.CatalogEventTypeIndexed, "indexer", 18)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelCatalogUpdates, event))

	require.Eventually(t, func() bool {
		return !cache.has("http:cache:abcd")
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, cache.has("loc:catalog:all"), "catalog entries survive an index sync")
}

func TestCacheWarmingService_WarmCacheWritesCatalogKeys(t *testing.T) {
	cache := newMockCache()
	svc := services.NewCacheWarmingService(catalog.NewBuiltinCatalog(), cache, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.WarmCache(ctx))

	assert.True(t, cache.has("loc:catalog:all"))
	assert.True(t, cache.has("loc:facility:h001"))
	assert.True(t, cache.has("loc:facility:p003"))

	listData, err := cache.Get(ctx, "loc:catalog:all")
	require.NoError(t, err)
	var facilities []*entities.Facility
	require.NoError(t, json.Unmarshal(listData, &facilities))
	assert.Len(t, facilities, 18)
}

func TestCacheWarmingService_CacheStats(t *testing.T) {
	cache := newMockCache()
	svc := services.NewCacheWarmingService(catalog.NewBuiltinCatalog(), cache, zerolog.Nop())
	ctx := context.Background()

	cold, err := svc.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, false, cold["catalog_warm"])

	require.NoError(t, svc.WarmCache(ctx))

	warm, err := svc.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, warm["catalog_warm"])
	assert.Equal(t, (5 * time.Minute).Seconds(), warm["catalog_ttl_seconds"])
}
