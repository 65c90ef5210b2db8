// Package console binds the map session's rendering ports to a terminal.
// Kiosk builds without a mapping SDK run on it: map operations become
// structured log lines an operator can tail, the facility list renders as
// plain text.
package console

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/mapsession"
)

// Canvas implements the map drawing port by logging every operation at debug
// level. Handles stay valid for the life of the canvas; removing one twice is
// harmless. Safe for calls from any goroutine.
type Canvas struct {
	logger zerolog.Logger

	mu   sync.Mutex
	next int
}

var _ mapsession.MapCanvas = (*Canvas)(nil)

func NewCanvas(logger zerolog.Logger) *Canvas {
	return &Canvas{logger: logger.With().Str("component", "console_canvas").Logger()}
}

// AddMarker logs the placement and returns a handle echoing popup and
// removal operations.
func (c *Canvas) AddMarker(at entities.Location, opts mapsession.MarkerOptions) (mapsession.MapMarker, error) {
	id := c.nextID()
	c.logger.Debug().Int("marker", id).Str("title", opts.Title).Str("icon", string(opts.Icon)).
		Float64("lat", at.Latitude).Float64("lng", at.Longitude).Msg("Marker placed")
	return &logMarker{canvas: c, id: id, title: opts.Title}, nil
}

// DrawLine logs the connector and returns its removal handle.
func (c *Canvas) DrawLine(from, to entities.Location, opts mapsession.LineOptions) (mapsession.MapShape, error) {
	id := c.nextID()
	c.logger.Debug().Int("shape", id).Bool("dashed", opts.Dashed).Int("weight", opts.Weight).
		Float64("from_lat", from.Latitude).Float64("from_lng", from.Longitude).
		Float64("to_lat", to.Latitude).Float64("to_lng", to.Longitude).Msg("Connector drawn")
	return &logShape{canvas: c, id: id}, nil
}

// SetView logs the new viewport center.
func (c *Canvas) SetView(center entities.Location, zoom float64) {
	c.logger.Debug().Float64("lat", center.Latitude).Float64("lng", center.Longitude).
		Float64("zoom", zoom).Msg("Viewport centered")
}

// FitBounds logs the viewport fit.
func (c *Canvas) FitBounds(bounds mapsession.Bounds, padding int) {
	c.logger.Debug().
		Float64("sw_lat", bounds.SouthWest.Latitude).Float64("sw_lng", bounds.SouthWest.Longitude).
		Float64("ne_lat", bounds.NorthEast.Latitude).Float64("ne_lng", bounds.NorthEast.Longitude).
		Int("padding", padding).Msg("Viewport fitted")
}

// InvalidateSize is a no-op; a terminal has no container to re-measure.
func (c *Canvas) InvalidateSize() {}

func (c *Canvas) nextID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return c.next
}

type logMarker struct {
	canvas *Canvas
	id     int
	title  string
}

func (m *logMarker) OpenPopup() {
	m.canvas.logger.Debug().Int("marker", m.id).Str("title", m.title).Msg("Popup opened")
}

func (m *logMarker) ClosePopup() {
	m.canvas.logger.Debug().Int("marker", m.id).Msg("Popup closed")
}

func (m *logMarker) Remove() {
	m.canvas.logger.Debug().Int("marker", m.id).Msg("Marker removed")
}

type logShape struct {
	canvas *Canvas
	id     int
}

func (s *logShape) Remove() {
	s.canvas.logger.Debug().Int("shape", s.id).Msg("Shape removed")
}
