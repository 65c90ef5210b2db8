package geolocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/lifexia/healthnav/internal/domain/providers"
)

// MockGeolocationProvider implements a mock geolocation provider for testing
type MockGeolocationProvider struct{}

// NewMockGeolocationProvider creates a new mock geolocation provider
func NewMockGeolocationProvider() providers.GeolocationProvider {
	return &MockGeolocationProvider{}
}

// Geocode converts an address to coordinates (mock implementation)
func (m *MockGeolocationProvider) Geocode(ctx context.Context, address string) (*providers.Coordinates, error) {
	mockCoordinates := map[string]providers.Coordinates{
		"Ahmedabad":   {Latitude: 23.0225, Longitude: 72.5714},
		"Gandhinagar": {Latitude: 23.2156, Longitude: 72.6369},
		"Surat":       {Latitude: 21.1702, Longitude: 72.8311},
		"Vadodara":    {Latitude: 22.3072, Longitude: 73.1812},
		"Rajkot":      {Latitude: 22.3039, Longitude: 70.8022},
		"Mumbai":      {Latitude: 19.0760, Longitude: 72.8777},
		"Delhi":       {Latitude: 28.6139, Longitude: 77.2090},
	}

	lowered := strings.ToLower(address)
	for city, coords := range mockCoordinates {
		if strings.Contains(lowered, strings.ToLower(city)) {
			c := coords
			return &c, nil
		}
	}

	// Unknown addresses resolve to the Ahmedabad city center, the same
	// default the map session falls back to.
	return &providers.Coordinates{Latitude: 23.0225, Longitude: 72.5714}, nil
}

// ReverseGeocode converts coordinates to an address (mock implementation)
func (m *MockGeolocationProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*providers.GeocodedAddress, error) {
	return &providers.GeocodedAddress{
		FormattedAddress: fmt.Sprintf("%f, %f", lat, lon),
		Street:           "Ashram Road",
		City:             "Ahmedabad",
		State:            "Gujarat",
		ZipCode:          "380009",
		Country:          "India",
		Coordinates: providers.Coordinates{
			Latitude:  lat,
			Longitude: lon,
		},
	}, nil
}
