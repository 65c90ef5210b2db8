// Package places is a thin client for Google-Places-compatible web
// services. It only covers the lookups the facility source needs: nearby
// search, text search, and single-place details.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lifexia/healthnav/pkg/config"
	"github.com/lifexia/healthnav/pkg/retry"
)

type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) ([]Place, error)
	TextSearch(ctx context.Context, req TextSearchRequest) ([]Place, error)
	Details(ctx context.Context, placeID string) (*Place, error)
}

type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NearbySearchRequest asks for places of one type around a point. RadiusM is
// in meters, matching the upstream API.
type NearbySearchRequest struct {
	Latitude  float64
	Longitude float64
	RadiusM   int
	Type      string
	Keyword   string
}

// TextSearchRequest asks for places matching a free-text query, optionally
// biased around a point.
type TextSearchRequest struct {
	Query     string
	Latitude  float64
	Longitude float64
	RadiusM   int
}

// Place is one result row in the shape the upstream API returns it.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Types            []string `json:"types"`
	Vicinity         string   `json:"vicinity"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	OpeningHours *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
}

// Address returns the best available display address; nearby results carry
// vicinity, text search results a formatted address.
func (p *Place) Address() string {
	if p.Vicinity != "" {
		return p.Vicinity
	}
	return p.FormattedAddress
}

// OpenNow returns the open flag when the upstream reported one.
func (p *Place) OpenNow() *bool {
	if p.OpeningHours == nil {
		return nil
	}
	return p.OpeningHours.OpenNow
}

type placesResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
	Results      []Place `json:"results"`
	Result       *Place  `json:"result"`
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

func NewClient(cfg config.PlacesConfig) *HTTPClient {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return NewClientWithOptions(baseURL, cfg.APIKey, &http.Client{
		Timeout: 10 * time.Second,
	})
}

func NewClientWithOptions(baseURL, apiKey string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) NearbySearch(ctx context.Context, req NearbySearchRequest) ([]Place, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/nearbysearch/json", c.baseURL))
	if err != nil {
		return nil, err
	}

	query := parsed.Query()
	query.Set("location", fmt.Sprintf("%f,%f", req.Latitude, req.Longitude))
	radius := req.RadiusM
	if radius <= 0 {
		radius = 5000
	}
	query.Set("radius", fmt.Sprintf("%d", radius))
	if req.Type != "" {
		query.Set("type", req.Type)
	}
	if req.Keyword != "" {
		query.Set("keyword", req.Keyword)
	}
	parsed.RawQuery = c.withKey(query)

	out := &placesResponse{}
	if err := c.doJSON(ctx, parsed.String(), out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *HTTPClient) TextSearch(ctx context.Context, req TextSearchRequest) ([]Place, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	parsed, err := url.Parse(fmt.Sprintf("%s/textsearch/json", c.baseURL))
	if err != nil {
		return nil, err
	}

	query := parsed.Query()
	query.Set("query", req.Query)
	if req.Latitude != 0 || req.Longitude != 0 {
		query.Set("location", fmt.Sprintf("%f,%f", req.Latitude, req.Longitude))
		if req.RadiusM > 0 {
			query.Set("radius", fmt.Sprintf("%d", req.RadiusM))
		}
	}
	parsed.RawQuery = c.withKey(query)

	out := &placesResponse{}
	if err := c.doJSON(ctx, parsed.String(), out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *HTTPClient) Details(ctx context.Context, placeID string) (*Place, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("place id is required")
	}
	parsed, err := url.Parse(fmt.Sprintf("%s/details/json", c.baseURL))
	if err != nil {
		return nil, err
	}

	query := parsed.Query()
	query.Set("place_id", placeID)
	parsed.RawQuery = c.withKey(query)

	out := &placesResponse{}
	if err := c.doJSON(ctx, parsed.String(), out); err != nil {
		return nil, err
	}
	if out.Result == nil {
		return nil, fmt.Errorf("place %s not found", placeID)
	}
	return out.Result, nil
}

func (c *HTTPClient) withKey(query url.Values) string {
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	return query.Encode()
}

// doJSON issues the lookup with bounded retries. Transport failures, 5xx
// responses and the upstream's transient body statuses retry; rejections do
// not. Lookups are idempotent GETs, so repeating one is safe.
func (c *HTTPClient) doJSON(ctx context.Context, endpoint string, out *placesResponse) error {
	return retry.Do(ctx, retry.HTTPConfig(), func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			err := fmt.Errorf("places api returned status %d", resp.StatusCode)
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return err
			}
			return retry.Permanent(err)
		}

		var decoded placesResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return retry.Permanent(err)
		}

		// The upstream reports failures in the body with a 200 status.
		switch decoded.Status {
		case "OK", "ZERO_RESULTS":
		case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
			return statusError(decoded)
		default:
			return retry.Permanent(statusError(decoded))
		}

		*out = decoded
		return nil
	})
}

func statusError(resp placesResponse) error {
	if resp.ErrorMessage != "" {
		return fmt.Errorf("places api error: %s (%s)", resp.Status, resp.ErrorMessage)
	}
	return fmt.Errorf("places api error: %s", resp.Status)
}
