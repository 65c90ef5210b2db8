package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/repositories"
)

// LocationHandler serves the map aggregation endpoints.
type LocationHandler struct {
	locations *services.LocationService
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locations *services.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// ListLocations handles GET /api/map/locations
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	at, err := parseLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := h.locations.ListLocations(r.Context(), r.URL.Query().Get("category"), at)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithLocations(w, facilities)
}

// NearbyLocations handles GET /api/map/locations/nearby
func (h *LocationHandler) NearbyLocations(w http.ResponseWriter, r *http.Request) {
	at, err := requireLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseRadius(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := h.locations.Nearby(r.Context(), services.NearbyParams{
		At:       at,
		RadiusKm: radius,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithLocations(w, facilities)
}

// NearbyHospitals handles GET /api/map/hospitals/nearby
func (h *LocationHandler) NearbyHospitals(w http.ResponseWriter, r *http.Request) {
	at, err := requireLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseRadius(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := h.locations.NearbyHospitals(r.Context(), services.HospitalParams{
		At:         at,
		RadiusKm:   radius,
		Speciality: r.URL.Query().Get("speciality"),
		Ayushman:   parseBoolFlag(r, "ayushman"),
		Maa:        parseBoolFlag(r, "maa"),
		Emergency:  parseBoolFlag(r, "emergency"),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithLocations(w, facilities)
}

// NearbyPharmacies handles GET /api/map/pharmacies/nearby
func (h *LocationHandler) NearbyPharmacies(w http.ResponseWriter, r *http.Request) {
	at, err := requireLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseRadius(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := h.locations.NearbyPharmacies(r.Context(), services.PharmacyParams{
		At:       at,
		RadiusKm: radius,
		OpenNow:  parseBoolFlag(r, "open_now"),
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithLocations(w, facilities)
}

// Search handles GET /api/map/search
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	at, err := parseLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	radius, err := parseRadius(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := repositories.SearchParams{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		RadiusKm: radius,
	}
	if at != nil {
		params.Latitude = at.Latitude
		params.Longitude = at.Longitude
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		params.Limit = limit
	}

	facilities, err := h.locations.Search(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithLocations(w, facilities)
}

// Directions handles GET /api/map/directions/{id}
func (h *LocationHandler) Directions(w http.ResponseWriter, r *http.Request) {
	facilityID := r.PathValue("id")
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "facility ID is required")
		return
	}
	at, err := parseLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.locations.Directions(r.Context(), facilityID, at)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"facility":       info.Facility,
		"directions_url": info.URL,
	})
}

// Emergency handles GET /api/map/emergency
func (h *LocationHandler) Emergency(w http.ResponseWriter, r *http.Request) {
	at, err := parseLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.locations.Emergency(r.Context(), at)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"emergency_number": info.Number,
		"count":            len(info.Hospitals),
		"hospitals":        info.Hospitals,
	})
}

// CardFacilities handles GET /api/map/card-facilities
func (h *LocationHandler) CardFacilities(w http.ResponseWriter, r *http.Request) {
	at, err := parseLocation(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	facilities, err := h.locations.CardFacilities(r.Context(), r.URL.Query().Get("card"), at)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithLocations(w, facilities)
}

// Categories handles GET /api/map/categories
func (h *LocationHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.locations.Categories(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": categories,
	})
}
