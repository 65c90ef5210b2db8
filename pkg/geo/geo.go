// Package geo provides the distance, travel-time, and maps-handoff helpers
// shared by the aggregation service, the source adapters, and the map session.
package geo

import (
	"fmt"
	"math"
	"net/url"
)

const (
	earthRadiusKm = 6371.0

	// urbanSpeedKmh is the assumed average speed for travel-time estimates
	// in dense city traffic.
	urbanSpeedKmh = 25.0
)

// DistanceKm returns the haversine distance between two coordinates in
// kilometers, rounded to two decimals to keep display values stable across
// sources.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLng := toRadians(lng2 - lng1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKm*c*100) / 100
}

// EstimateTravelMinutes converts a distance into an urban travel-time
// estimate, never less than one minute.
func EstimateTravelMinutes(distanceKm float64) int {
	minutes := int(math.Round(distanceKm / urbanSpeedKmh * 60))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// DirectionsURL builds the external maps handoff link for a destination.
// Routing itself is the maps provider's job; we only hand over coordinates
// and a display name.
func DirectionsURL(name string, lat, lng float64) string {
	return fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&destination=%s,%s&destination_place_id=%s",
		formatCoord(lat), formatCoord(lng), url.QueryEscape(name),
	)
}

// ShareURL builds a wa.me compose link carrying a pre-filled message.
func ShareURL(message string) string {
	return "https://wa.me/?text=" + url.QueryEscape(message)
}

// ValidCoordinates reports whether the pair is inside the WGS84 domain.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func formatCoord(v float64) string {
	return trimTrailingZeros(fmt.Sprintf("%.6f", v))
}

func trimTrailingZeros(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
