// Package sources implements the FacilitySource port: the backends a map
// session can pull facility records from. Every source returns canonical
// facilities; raw shapes never leave this package.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/normalize"
	"github.com/lifexia/healthnav/pkg/errors"
)

// APISource fetches facilities from an aggregation HTTP API. It understands
// both response shapes the endpoint family has shipped: the envelope
// {"success":true,"count":N,"locations":[...]} and the bare JSON array the
// oldest deployments returned.
type APISource struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewAPISource(baseURL string, logger zerolog.Logger) *APISource {
	return NewAPISourceWithOptions(baseURL, &http.Client{Timeout: 10 * time.Second}, logger)
}

// NewAPISourceWithOptions allows injecting a custom HTTP client for testing.
func NewAPISourceWithOptions(baseURL string, httpClient *http.Client, logger zerolog.Logger) *APISource {
	return &APISource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With().Str("component", "api_source").Logger(),
	}
}

var _ providers.FacilitySource = (*APISource)(nil)

type locationsEnvelope struct {
	Success   bool               `json:"success"`
	Count     int                `json:"count"`
	Locations []normalize.Record `json:"locations"`
	Error     string             `json:"error,omitempty"`
}

// FetchFacilities queries the matching endpoint and normalizes the result.
func (s *APISource) FetchFacilities(ctx context.Context, query providers.FacilityQuery) ([]*entities.Facility, error) {
	endpoint, err := s.buildURL(query)
	if err != nil {
		return nil, errors.NewInternalError("failed to build locations url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to build locations request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("locations request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewExternalError(fmt.Sprintf("locations endpoint returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalError("failed to read locations response", err)
	}

	records, err := decodeLocations(body)
	if err != nil {
		return nil, errors.NewExternalError("failed to decode locations response", err)
	}

	facilities, dropped := normalize.NormalizeAll(records, s.logger)
	if dropped > 0 {
		s.logger.Warn().Int("dropped", dropped).Int("kept", len(facilities)).Msg("Dropped unnormalizable records from locations response")
	}
	return facilities, nil
}

// buildURL picks the endpoint the query maps to: free-text queries hit the
// search endpoint, radius queries the nearby endpoint, everything else the
// plain listing.
func (s *APISource) buildURL(query providers.FacilityQuery) (string, error) {
	path := "/api/map/locations"
	switch {
	case strings.TrimSpace(query.Query) != "":
		path = "/api/map/search"
	case query.Center != nil && query.RadiusKm > 0:
		path = "/api/map/locations/nearby"
	}

	parsed, err := url.Parse(s.baseURL + path)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	if query.Center != nil {
		q.Set("lat", fmt.Sprintf("%f", query.Center.Latitude))
		q.Set("lng", fmt.Sprintf("%f", query.Center.Longitude))
	}
	switch path {
	case "/api/map/search":
		q.Set("q", query.Query)
	default:
		if query.Category != "" {
			q.Set("category", query.Category)
		}
		if path == "/api/map/locations/nearby" {
			q.Set("radius", fmt.Sprintf("%g", query.RadiusKm))
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// decodeLocations accepts either the success envelope or a bare record array.
func decodeLocations(body []byte) ([]normalize.Record, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var records []normalize.Record
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var envelope locationsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success && envelope.Error != "" {
		return nil, fmt.Errorf("locations endpoint error: %s", envelope.Error)
	}
	return envelope.Locations, nil
}
