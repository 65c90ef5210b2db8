package geolocation

import (
	"context"
	"fmt"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
)

// FixedLocator always reports the same position. Kiosk deployments pin it to
// the terminal's coordinate; tests pin it wherever the fixture needs.
type FixedLocator struct {
	location entities.Location
}

var _ providers.Locator = (*FixedLocator)(nil)

// NewFixedLocator creates a locator pinned to the given coordinate.
func NewFixedLocator(lat, lng float64) *FixedLocator {
	return &FixedLocator{location: entities.Location{Latitude: lat, Longitude: lng}}
}

// Locate returns the configured position.
func (l *FixedLocator) Locate(ctx context.Context) (entities.Location, error) {
	if err := ctx.Err(); err != nil {
		return entities.Location{}, err
	}
	return l.location, nil
}

// GeocodeLocator resolves a configured address through a geocoding provider.
// Headless deployments configure it with the site address instead of device
// geolocation.
type GeocodeLocator struct {
	provider providers.GeolocationProvider
	address  string
}

var _ providers.Locator = (*GeocodeLocator)(nil)

// NewGeocodeLocator creates a locator that geocodes the given address on
// every Locate call; callers that need stability should sit it behind a
// cache-backed provider.
func NewGeocodeLocator(provider providers.GeolocationProvider, address string) *GeocodeLocator {
	return &GeocodeLocator{provider: provider, address: address}
}

// Locate geocodes the configured address.
func (l *GeocodeLocator) Locate(ctx context.Context) (entities.Location, error) {
	coords, err := l.provider.Geocode(ctx, l.address)
	if err != nil {
		return entities.Location{}, fmt.Errorf("failed to locate %q: %w", l.address, err)
	}
	return entities.Location{Latitude: coords.Latitude, Longitude: coords.Longitude}, nil
}
