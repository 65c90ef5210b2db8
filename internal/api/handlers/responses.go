package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/infrastructure/observability"
	apperrors "github.com/lifexia/healthnav/pkg/errors"
	"github.com/lifexia/healthnav/pkg/geo"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithLocations writes the standard listing envelope.
func respondWithLocations(w http.ResponseWriter, facilities []*entities.Facility) {
	if facilities == nil {
		facilities = []*entities.Facility{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"count":     len(facilities),
		"locations": facilities,
	})
}

// respondWithServiceError maps the error taxonomy onto HTTP statuses.
// Anything unclassified is a 500 and gets logged; classified errors carry
// their message to the client.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeUnavailable:
			respondWithError(w, http.StatusServiceUnavailable, appErr.Message)
			return
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
			return
		}
	}
	observability.LoggerFromContext(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).Msg("Unhandled service error")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

// parseLocation reads the optional lat/lng query pair. Both absent means an
// unlocated caller (nil); one without the other is an error.
func parseLocation(r *http.Request) (*entities.Location, error) {
	latStr := strings.TrimSpace(r.URL.Query().Get("lat"))
	lngStr := strings.TrimSpace(r.URL.Query().Get("lng"))
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, fmt.Errorf("lat and lng must be provided together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat parameter")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lng parameter")
	}
	if !geo.ValidCoordinates(lat, lng) {
		return nil, fmt.Errorf("coordinates out of range")
	}

	return &entities.Location{Latitude: lat, Longitude: lng}, nil
}

// requireLocation is parseLocation for endpoints that cannot work without a
// caller position.
func requireLocation(r *http.Request) (entities.Location, error) {
	loc, err := parseLocation(r)
	if err != nil {
		return entities.Location{}, err
	}
	if loc == nil {
		return entities.Location{}, fmt.Errorf("lat and lng parameters are required")
	}
	return *loc, nil
}

// parseRadius reads the optional radius query parameter in kilometers.
// Zero means "use the endpoint default".
func parseRadius(r *http.Request) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("radius"))
	if raw == "" {
		return 0, nil
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || radius < 0 {
		return 0, fmt.Errorf("invalid radius parameter")
	}
	return radius, nil
}

// parseBoolFlag reads a query flag; only "true" (any case) switches it on.
func parseBoolFlag(r *http.Request, name string) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get(name)), "true")
}
