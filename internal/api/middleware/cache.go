package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
)

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides HTTP response caching
type CacheMiddleware struct {
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
	logger       zerolog.Logger
}

// NewCacheMiddleware creates a cache middleware with the default per-route
// TTLs. The catalog changes rarely, so listing routes hold for minutes;
// search results go stale faster; category names and map tiles barely move.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, logger zerolog.Logger) *CacheMiddleware {
	return &CacheMiddleware{
		cache:   cache,
		metrics: metrics,
		logger:  logger.With().Str("component", "http_cache").Logger(),
		routeConfigs: map[string]CacheConfig{
			"/api/map/locations":         {TTLSeconds: 300, Enabled: true}, // also covers /locations/nearby via prefix
			"/api/map/hospitals/nearby":  {TTLSeconds: 300, Enabled: true},
			"/api/map/pharmacies/nearby": {TTLSeconds: 300, Enabled: true},
			"/api/map/emergency":         {TTLSeconds: 300, Enabled: true},
			"/api/map/card-facilities":   {TTLSeconds: 300, Enabled: true},
			"/api/map/search":            {TTLSeconds: 60, Enabled: true},
			"/api/map/categories":        {TTLSeconds: 3600, Enabled: true},
			"/api/map/preview":           {TTLSeconds: 86400, Enabled: true},
			"/api/geolocation/geocode":   {TTLSeconds: 3600, Enabled: true},
		},
	}
}

// cachedResponse is the stored shape. Body bytes ride through JSON base64 so
// the preview route's image payloads survive alongside the JSON routes.
type cachedResponse struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only cache GET requests
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		// Check if caching is disabled
		if m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Get cache config for this route
		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := m.generateCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			var stored cachedResponse
			if err := json.Unmarshal(cached, &stored); err == nil && len(stored.Body) > 0 {
				observability.RecordCacheHit(r.Context(), m.metrics, "http")
				m.logger.Debug().Str("path", r.URL.Path).Msg("Cache hit")
				w.Header().Set("X-Cache", "HIT")
				w.Header().Set("Content-Type", stored.ContentType)
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(stored.Body)
				return
			}
		}

		observability.RecordCacheMiss(r.Context(), m.metrics, "http")
		m.logger.Debug().Str("path", r.URL.Path).Msg("Cache miss")
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}

		next.ServeHTTP(recorder, r)

		// Only cache successful responses
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			contentType := recorder.Header().Get("Content-Type")
			if contentType == "" {
				contentType = "application/json"
			}
			payload, err := json.Marshal(cachedResponse{ContentType: contentType, Body: recorder.body.Bytes()})
			if err != nil {
				return
			}
			if err := m.cache.Set(r.Context(), cacheKey, payload, config.TTLSeconds); err != nil {
				m.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
			}
		}
	})
}

// getRouteConfig gets the cache configuration for a route
func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	// Exact match first
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}

	// Prefix match for dynamic routes (e.g., /api/map/locations/nearby)
	for pattern, config := range m.routeConfigs {
		if strings.HasPrefix(path, pattern) {
			return config
		}
	}

	// Default: no caching
	return CacheConfig{Enabled: false}
}

// generateCacheKey generates a cache key from the request
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	// Include method, path, and query parameters
	key := fmt.Sprintf("%s:%s", r.Method, r.URL.Path)

	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	// Hash the key to keep it reasonable length
	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}

	// Write to buffer for caching
	r.body.Write(data)

	// Write to client
	return r.ResponseWriter.Write(data)
}

// CacheMiddlewareWithConfig creates a cache middleware with custom config
func CacheMiddlewareWithConfig(cache providers.CacheProvider, metrics *observability.Metrics, logger zerolog.Logger, configs map[string]CacheConfig) func(http.Handler) http.Handler {
	m := &CacheMiddleware{
		cache:        cache,
		metrics:      metrics,
		logger:       logger.With().Str("component", "http_cache").Logger(),
		routeConfigs: configs,
	}
	return m.Middleware
}
