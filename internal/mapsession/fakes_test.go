package mapsession_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/mapsession"
)

// fakeCanvas records every drawing call so tests can assert exactly what
// ended up on the map.
type fakeCanvas struct {
	mu            sync.Mutex
	markers       []*fakeMarker
	shapes        []*fakeShape
	views         []viewCall
	fits          []fitCall
	invalidations int
	failTitles    map[string]bool
}

type viewCall struct {
	center entities.Location
	zoom   float64
}

type fitCall struct {
	bounds  mapsession.Bounds
	padding int
}

func (c *fakeCanvas) AddMarker(at entities.Location, opts mapsession.MarkerOptions) (mapsession.MapMarker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failTitles[opts.Title] {
		return nil, errors.New("canvas rejected marker")
	}
	m := &fakeMarker{canvas: c, at: at, opts: opts}
	c.markers = append(c.markers, m)
	return m, nil
}

func (c *fakeCanvas) DrawLine(from, to entities.Location, opts mapsession.LineOptions) (mapsession.MapShape, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &fakeShape{canvas: c, from: from, to: to, opts: opts}
	c.shapes = append(c.shapes, s)
	return s, nil
}

func (c *fakeCanvas) SetView(center entities.Location, zoom float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = append(c.views, viewCall{center: center, zoom: zoom})
}

func (c *fakeCanvas) FitBounds(bounds mapsession.Bounds, padding int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fits = append(c.fits, fitCall{bounds: bounds, padding: padding})
}

func (c *fakeCanvas) InvalidateSize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
}

// liveFacilityMarkers returns the facility markers still on the canvas.
func (c *fakeCanvas) liveFacilityMarkers() []*fakeMarker {
	c.mu.Lock()
	defer c.mu.Unlock()
	var live []*fakeMarker
	for _, m := range c.markers {
		if !m.removed && m.opts.Icon != mapsession.IconUser {
			live = append(live, m)
		}
	}
	return live
}

// userMarkerAdds returns how many user markers were ever placed.
func (c *fakeCanvas) userMarkerAdds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.markers {
		if m.opts.Icon == mapsession.IconUser {
			n++
		}
	}
	return n
}

func (c *fakeCanvas) liveUserMarkers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.markers {
		if m.opts.Icon == mapsession.IconUser && !m.removed {
			n++
		}
	}
	return n
}

func (c *fakeCanvas) liveShapes() []*fakeShape {
	c.mu.Lock()
	defer c.mu.Unlock()
	var live []*fakeShape
	for _, s := range c.shapes {
		if !s.removed {
			live = append(live, s)
		}
	}
	return live
}

func (c *fakeCanvas) markerByTitle(title string) *fakeMarker {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.markers {
		if !m.removed && m.opts.Title == title {
			return m
		}
	}
	return nil
}

func (c *fakeCanvas) lastView() (viewCall, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.views) == 0 {
		return viewCall{}, false
	}
	return c.views[len(c.views)-1], true
}

func (c *fakeCanvas) markerAdds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.markers)
}

type fakeMarker struct {
	canvas    *fakeCanvas
	at        entities.Location
	opts      mapsession.MarkerOptions
	popupOpen bool
	removed   bool
}

func (m *fakeMarker) OpenPopup() {
	m.canvas.mu.Lock()
	defer m.canvas.mu.Unlock()
	m.popupOpen = true
}

func (m *fakeMarker) ClosePopup() {
	m.canvas.mu.Lock()
	defer m.canvas.mu.Unlock()
	m.popupOpen = false
}

func (m *fakeMarker) Remove() {
	m.canvas.mu.Lock()
	defer m.canvas.mu.Unlock()
	m.removed = true
}

type fakeShape struct {
	canvas  *fakeCanvas
	from    entities.Location
	to      entities.Location
	opts    mapsession.LineOptions
	removed bool
}

func (s *fakeShape) Remove() {
	s.canvas.mu.Lock()
	defer s.canvas.mu.Unlock()
	s.removed = true
}

// fakeSurface records every presented list model and streams them to waiting
// tests.
type fakeSurface struct {
	mu        sync.Mutex
	models    []mapsession.ListModel
	presented chan mapsession.ListModel
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{presented: make(chan mapsession.ListModel, 64)}
}

func (s *fakeSurface) Present(m mapsession.ListModel) {
	s.mu.Lock()
	s.models = append(s.models, m)
	s.mu.Unlock()
	s.presented <- m
}

func (s *fakeSurface) last() (mapsession.ListModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.models) == 0 {
		return mapsession.ListModel{}, false
	}
	return s.models[len(s.models)-1], true
}

// waitForState consumes presented models until one carries the wanted state.
func waitForState(t *testing.T, surface *fakeSurface, state mapsession.ListState) mapsession.ListModel {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-surface.presented:
			if m.State == state {
				return m
			}
		case <-timeout:
			t.Fatalf("timed out waiting for list state %q", state)
		}
	}
}

// fakeSource serves canned facility records and records every query it saw.
type fakeSource struct {
	mu      sync.Mutex
	queries []providers.FacilityQuery
	records []*entities.Facility
	err     error
	respond func(q providers.FacilityQuery) ([]*entities.Facility, error)
}

func (s *fakeSource) FetchFacilities(ctx context.Context, q providers.FacilityQuery) ([]*entities.Facility, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	respond := s.respond
	records, err := s.records, s.err
	s.mu.Unlock()
	if respond != nil {
		return respond(q)
	}
	return records, err
}

func (s *fakeSource) queryAt(i int) (providers.FacilityQuery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.queries) {
		return providers.FacilityQuery{}, false
	}
	return s.queries[i], true
}

func (s *fakeSource) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// fakeLocator returns a fixed position, a fixed error, or blocks until the
// context expires.
type fakeLocator struct {
	loc   entities.Location
	err   error
	block bool
}

func (l *fakeLocator) Locate(ctx context.Context) (entities.Location, error) {
	if l.block {
		<-ctx.Done()
		return entities.Location{}, ctx.Err()
	}
	if l.err != nil {
		return entities.Location{}, l.err
	}
	return l.loc, nil
}

type fakeSizeObserver struct {
	mu       sync.Mutex
	observed bool
	stopped  bool
	fn       func()
}

func (o *fakeSizeObserver) Observe(fn func()) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observed = true
	o.fn = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.stopped = true
	}
}

func (o *fakeSizeObserver) isStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

func fac(id, name, category string, lat, lng float64) *entities.Facility {
	return &entities.Facility{
		ID:       id,
		Name:     name,
		Category: category,
		Location: entities.Location{Latitude: lat, Longitude: lng},
	}
}

func facAt(id, name, category string, lat, lng, distanceKm float64) *entities.Facility {
	f := fac(id, name, category, lat, lng)
	f.Distance = &distanceKm
	return f
}

var testCenter = entities.Location{Latitude: 23.0225, Longitude: 72.5714}
