package mapsession

import (
	"github.com/lifexia/healthnav/internal/domain/entities"
)

// MapCanvas is the drawing capability the map view runs against. UI hosts
// bind it to a real mapping SDK; tests bind it to a fake. Implementations
// must tolerate calls from non-UI goroutines (fetches complete off the UI
// loop) and marshal to their own rendering thread as needed.
type MapCanvas interface {
	// AddMarker places a marker and returns its handle.
	AddMarker(at entities.Location, opts MarkerOptions) (MapMarker, error)

	// DrawLine draws a straight connector between two points. It is a
	// visual line, not a road route.
	DrawLine(from, to entities.Location, opts LineOptions) (MapShape, error)

	// SetView centers the viewport.
	SetView(center entities.Location, zoom float64)

	// FitBounds adjusts the viewport to contain the bounds with padding
	// in screen units.
	FitBounds(bounds Bounds, padding int)

	// InvalidateSize forces the canvas to re-measure its container. Maps
	// initialized inside hidden containers compute wrong dimensions until
	// this is called.
	InvalidateSize()
}

// MapMarker is the handle to one placed marker.
type MapMarker interface {
	OpenPopup()
	ClosePopup()
	Remove()
}

// MapShape is the handle to one drawn overlay.
type MapShape interface {
	Remove()
}

// MarkerOptions describes a marker at creation time.
type MarkerOptions struct {
	Icon  entities.IconBucket
	Title string
	Popup string
}

// LineOptions describes a drawn connector.
type LineOptions struct {
	Dashed bool
	Weight int
}

// Bounds is a rectangle in coordinate space.
type Bounds struct {
	SouthWest entities.Location
	NorthEast entities.Location
}

// IconUser is the reserved icon for the caller-position marker. It is not a
// facility category bucket.
const IconUser entities.IconBucket = "user"

// SizeObserver watches the canvas container for size changes. Observe
// returns a stop function; the session calls it on dispose so no observer
// outlives the session.
type SizeObserver interface {
	Observe(fn func()) (stop func())
}

// BoundsOf returns the smallest bounds containing both points.
func BoundsOf(a, b entities.Location) Bounds {
	bounds := Bounds{SouthWest: a, NorthEast: a}
	if b.Latitude < bounds.SouthWest.Latitude {
		bounds.SouthWest.Latitude = b.Latitude
	}
	if b.Latitude > bounds.NorthEast.Latitude {
		bounds.NorthEast.Latitude = b.Latitude
	}
	if b.Longitude < bounds.SouthWest.Longitude {
		bounds.SouthWest.Longitude = b.Longitude
	}
	if b.Longitude > bounds.NorthEast.Longitude {
		bounds.NorthEast.Longitude = b.Longitude
	}
	return bounds
}
