package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/pkg/geo"
)

const (
	staticMapURL        = "https://maps.googleapis.com/maps/api/staticmap"
	defaultPreviewZoom  = "14"
	defaultPreviewSize  = "640x360"
	defaultPreviewScale = "1"
	previewCacheTTL     = 60 * 60 * 24 * 7
)

// PreviewHandler proxies static map previews showing the user position and,
// optionally, a selected facility.
type PreviewHandler struct {
	apiKey  string
	cache   providers.CacheProvider
	client  *http.Client
	baseURL string
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(apiKey string, cache providers.CacheProvider) *PreviewHandler {
	return NewPreviewHandlerWithOptions(apiKey, cache, staticMapURL, nil)
}

// NewPreviewHandlerWithOptions allows overriding base URL and HTTP client (used for tests).
func NewPreviewHandlerWithOptions(apiKey string, cache providers.CacheProvider, baseURL string, client *http.Client) *PreviewHandler {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = staticMapURL
	}
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &PreviewHandler{
		apiKey:  apiKey,
		cache:   cache,
		client:  client,
		baseURL: baseURL,
	}
}

// GetPreview handles GET /api/map/preview. It renders the user position as a
// blue marker and the facility, when given, as a red one, then caches the
// returned image bytes.
func (h *PreviewHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	if h.apiKey == "" {
		respondWithError(w, http.StatusBadRequest, "maps api key not configured")
		return
	}

	query := r.URL.Query()
	lat, lng, err := parsePreviewPoint(query.Get("lat"), query.Get("lng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if lat == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng parameters are required")
		return
	}

	facilityLat, facilityLng, err := parsePreviewPoint(query.Get("facility_lat"), query.Get("facility_lng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	zoom := strings.TrimSpace(query.Get("zoom"))
	if zoom == "" {
		zoom = defaultPreviewZoom
	}
	size := strings.TrimSpace(query.Get("size"))
	if size == "" {
		size = defaultPreviewSize
	}

	markers := []string{fmt.Sprintf("color:blue|label:U|%.6f,%.6f", *lat, *lng)}
	center := fmt.Sprintf("%.6f,%.6f", *lat, *lng)
	if facilityLat != nil {
		markers = append(markers, fmt.Sprintf("color:red|label:F|%.6f,%.6f", *facilityLat, *facilityLng))
		// Midpoint keeps both markers in frame at the default zoom.
		center = fmt.Sprintf("%.6f,%.6f", (*lat+*facilityLat)/2, (*lng+*facilityLng)/2)
	}

	cacheKey := buildPreviewCacheKey(center, zoom, size, markers)
	if h.cache != nil {
		if cached, err := h.cache.Get(r.Context(), cacheKey); err == nil && len(cached) > 0 {
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	values := url.Values{}
	values.Set("center", center)
	values.Set("zoom", zoom)
	values.Set("size", size)
	values.Set("scale", defaultPreviewScale)
	for _, marker := range markers {
		values.Add("markers", marker)
	}
	values.Set("key", h.apiKey)

	mapURL := fmt.Sprintf("%s?%s", h.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, mapURL, nil)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to build map request")
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to fetch map image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respondWithError(w, http.StatusBadGateway, "map provider returned an error")
		return
	}

	imageBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to read map image")
		return
	}

	if h.cache != nil {
		_ = h.cache.Set(r.Context(), cacheKey, imageBytes, previewCacheTTL)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(imageBytes)
}

// parsePreviewPoint parses a lat/lng parameter pair. Both empty yields nil
// pointers; one empty is an error.
func parsePreviewPoint(latStr, lngStr string) (*float64, *float64, error) {
	latStr = strings.TrimSpace(latStr)
	lngStr = strings.TrimSpace(lngStr)
	if latStr == "" && lngStr == "" {
		return nil, nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, nil, fmt.Errorf("lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid lat parameter")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid lng parameter")
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, nil, fmt.Errorf("coordinates out of range")
	}
	return &lat, &lng, nil
}

func buildPreviewCacheKey(center, zoom, size string, markers []string) string {
	values := url.Values{}
	values.Set("center", center)
	values.Set("zoom", zoom)
	values.Set("size", size)
	for _, marker := range markers {
		values.Add("markers", marker)
	}
	return "maps:preview:" + hashString(values.Encode())
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
