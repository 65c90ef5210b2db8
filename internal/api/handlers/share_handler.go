package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/pkg/geo"
)

const (
	shareRateLimit   = 5
	shareRateWindow  = time.Hour
	shareDedupWindow = 10 * time.Minute
)

// ShareHandler handles WhatsApp directions sharing. Sends are rate limited
// per client IP and deduplicated per phone/facility pair so a double-tapped
// share button does not message the phone twice.
type ShareHandler struct {
	service *services.ShareService
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewShareHandler creates a new share handler.
func NewShareHandler(service *services.ShareService, cache providers.CacheProvider) *ShareHandler {
	return &ShareHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

type shareRequest struct {
	Phone      string   `json:"phone"`
	FacilityID string   `json:"facility_id"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// ShareDirections handles POST /api/share/directions
func (h *ShareHandler) ShareDirections(w http.ResponseWriter, r *http.Request) {
	var payload shareRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.Phone = strings.TrimSpace(payload.Phone)
	payload.FacilityID = strings.TrimSpace(payload.FacilityID)
	if payload.Phone == "" {
		respondWithError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if payload.FacilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility_id is required")
		return
	}

	var from *entities.Location
	if payload.Lat != nil || payload.Lng != nil {
		if payload.Lat == nil || payload.Lng == nil {
			respondWithError(w, http.StatusBadRequest, "lat and lng must be provided together")
			return
		}
		if !geo.ValidCoordinates(*payload.Lat, *payload.Lng) {
			respondWithError(w, http.StatusBadRequest, "coordinates out of range")
			return
		}
		from = &entities.Location{Latitude: *payload.Lat, Longitude: *payload.Lng}
	}

	key := "share:rate:" + clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), key)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	dupKey := "share:dup:" + shareFingerprint(payload.Phone, payload.FacilityID)
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	receipt, err := h.service.ShareDirections(r.Context(), services.ShareRequest{
		Phone:      payload.Phone,
		FacilityID: payload.FacilityID,
		From:       from,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"reference":  receipt.Reference,
		"message_id": receipt.MessageID,
		"phone":      receipt.Phone,
	})
}

func (h *ShareHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, shareRateLimit, shareRateWindow)
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= shareRateLimit {
		return false, shareRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(shareRateWindow.Seconds()))
	return true, shareRateWindow
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *ShareHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key, shareDedupWindow)
	}

	exists, err := h.cache.Exists(ctx, key)
	if err == nil && exists {
		return true
	}

	_ = h.cache.Set(ctx, key, []byte("1"), int(shareDedupWindow.Seconds()))
	return false
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string, window time.Duration) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return true
	}

	d.entries[key] = now.Add(window)
	return false
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func shareFingerprint(phone, facilityID string) string {
	normalized := strings.ToLower(strings.TrimSpace(phone)) + "|" + strings.ToLower(strings.TrimSpace(facilityID))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}
