// Package mapsession coordinates one user-facing map-and-list browsing
// session: it owns the facility store, the selection state and the two view
// projections, and serializes every mutation so the map and the list always
// show the same world.
package mapsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
)

const (
	defaultLocateTimeout = 5 * time.Second
	defaultFetchTimeout  = 15 * time.Second
)

// Config carries the per-session tunables. Zero timeouts fall back to the
// package defaults.
type Config struct {
	// DefaultCenter is the coordinate used when geolocation fails or times
	// out. The session always ends up with a usable center.
	DefaultCenter entities.Location

	// LocateTimeout bounds the wait for the locator before falling back.
	LocateTimeout time.Duration

	// FetchTimeout bounds each facility fetch.
	FetchTimeout time.Duration

	// RadiusKm is forwarded to the facility source; zero lets the source
	// apply its own default.
	RadiusKm float64
}

// Session drives one browsing session from open to dispose. All mutating
// entry points take the session lock and complete the state change plus both
// view renders before releasing it, so callers never observe the map and the
// list disagreeing. Canvas and surface implementations must not call back
// into the session synchronously; reentrant calls deadlock.
type Session struct {
	id      string
	cfg     Config
	source  providers.FacilitySource
	locator providers.Locator
	sizes   SizeObserver
	logger  zerolog.Logger

	mapView     *MapView
	listView    *ListView
	store       *Store
	coordinator *Coordinator

	mu         sync.Mutex
	open       bool
	disposed   bool
	userLoc    *entities.Location
	token      uint64
	ctx        context.Context
	cancel     context.CancelFunc
	stopResize func()
}

type snapshot struct {
	records    []*entities.Facility
	selectedID string
	selected   *entities.Facility
	user       *entities.Location
}

// NewSession wires a session against its source, locator and rendering
// targets. The locator and size observer may be nil: without a locator the
// session starts from the default center immediately, without an observer
// container resizes are the host's problem.
func NewSession(
	cfg Config,
	source providers.FacilitySource,
	locator providers.Locator,
	canvas MapCanvas,
	surface ListSurface,
	sizes SizeObserver,
	logger zerolog.Logger,
) *Session {
	if cfg.LocateTimeout <= 0 {
		cfg.LocateTimeout = defaultLocateTimeout
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	id := uuid.New().String()
	sessionLogger := logger.With().Str("session_id", id).Logger()
	return &Session{
		id:          id,
		cfg:         cfg,
		source:      source,
		locator:     locator,
		sizes:       sizes,
		logger:      sessionLogger,
		mapView:     NewMapView(canvas, sessionLogger),
		listView:    NewListView(surface, sessionLogger),
		store:       NewStore(),
		coordinator: NewCoordinator(),
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Open starts the session: it presents the loading state, begins watching the
// canvas container for resizes and kicks off geolocation. The first facility
// fetch fires once the user position is resolved or the locate timeout
// elapses, whichever comes first. Opening an already open session is an
// error; a disposed session stays disposed.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return errors.New("session disposed")
	}
	if s.open {
		s.mu.Unlock()
		return errors.New("session already open")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.open = true
	if s.sizes != nil {
		s.stopResize = s.sizes.Observe(s.mapView.InvalidateSize)
	}
	runCtx := s.ctx
	s.listView.Loading(StatusScanning)
	s.mu.Unlock()

	s.logger.Info().Msg("Session opened")
	go s.locate(runCtx)
	return nil
}

// locate resolves the user position, bounded by the locate timeout, and falls
// back to the configured default center on any failure. Either way the
// session ends up with a center, places the user marker once and issues the
// initial fetch.
func (s *Session) locate(ctx context.Context) {
	loc := s.cfg.DefaultCenter
	if s.locator != nil {
		locateCtx, cancel := context.WithTimeout(ctx, s.cfg.LocateTimeout)
		found, err := s.locator.Locate(locateCtx)
		cancel()
		if err != nil {
			s.logger.Debug().Err(err).
				Float64("fallback_lat", loc.Latitude).
				Float64("fallback_lng", loc.Longitude).
				Msg("Geolocation unavailable, using default center")
		} else {
			loc = found
		}
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.userLoc = &loc
	s.mapView.SetUserLocation(loc)
	s.mu.Unlock()

	s.refresh()
}

// refresh issues a tokenized fetch for the current filter, query and center.
// Only the newest token may apply its result, so rapid filter changes cannot
// interleave: the last request wins regardless of response order.
func (s *Session) refresh() {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.token++
	token := s.token
	query := providers.FacilityQuery{
		Query:    s.store.Query(),
		RadiusKm: s.cfg.RadiusKm,
	}
	if filter := s.store.Filter(); filter != FilterAll {
		query.Category = filter
	}
	if s.userLoc != nil {
		center := *s.userLoc
		query.Center = &center
	}
	ctx := s.ctx
	s.listView.Loading(StatusScanning)
	s.mu.Unlock()

	go func() {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
		records, err := s.source.FetchFacilities(fetchCtx, query)
		s.apply(token, records, err)
	}()
}

// apply installs a fetch result: it reloads the store, drops a selection the
// new filtered view no longer contains and re-renders both views in one pass.
// Results carrying a superseded token are discarded untouched.
func (s *Session) apply(token uint64, records []*entities.Facility, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open || token != s.token {
		s.logger.Debug().Uint64("token", token).Uint64("current", s.token).
			Msg("Discarding superseded fetch result")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Facility fetch failed")
		s.store.Load(nil)
		s.coordinator.Revalidate(s.store.InFiltered)
		s.mapView.Render(nil, "", s.userLoc)
		s.listView.Error(StatusError)
		return
	}
	count := s.store.Load(records)
	s.coordinator.Revalidate(s.store.InFiltered)
	s.logger.Info().Int("count", count).Str("filter", s.store.Filter()).Msg("Facilities loaded")
	snap := s.snapshotLocked()
	s.mapView.Render(snap.records, snap.selectedID, snap.user)
	s.listView.Render(snap.records, snap.selectedID)
}

// SetFilter activates a category filter and refreshes. Empty means all.
func (s *Session) SetFilter(category string) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.store.SetFilter(category)
	s.mu.Unlock()
	s.refresh()
}

// Search sets the free-text query and refreshes. Empty clears the query.
func (s *Session) Search(query string) {
	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return
	}
	s.store.SetQuery(query)
	s.mu.Unlock()
	s.refresh()
}

// SetSort reorders the list without refetching. The marker set is unordered,
// so only the list re-renders.
func (s *Session) SetSort(key SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.store.SetSort(key)
	snap := s.snapshotLocked()
	s.listView.Render(snap.records, snap.selectedID)
}

// Select highlights the facility with the given ID on both views: the map
// centers on it, opens its popup and draws the connector from the user
// position; the list marks its card. An ID outside the current filtered view
// clears the selection instead.
func (s *Session) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.coordinator.Select(id, s.store.InFiltered)
	s.renderSelectionLocked()
}

// ClearSelection drops the highlight from both views.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.coordinator.Clear()
	s.renderSelectionLocked()
}

func (s *Session) renderSelectionLocked() {
	snap := s.snapshotLocked()
	if snap.selected != nil {
		s.mapView.Focus(snap.selected, snap.user)
	} else {
		s.mapView.ClearFocus()
	}
	s.listView.Render(snap.records, snap.selectedID)
}

// OnSelectionChange registers an observer invoked with the selected ID after
// every selection change. Observers run under the session lock and must not
// call back into the session.
func (s *Session) OnSelectionChange(fn func(selectedID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coordinator.Subscribe(fn)
}

// Facilities returns the current filtered view in its presented order.
func (s *Session) Facilities() []*entities.Facility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.FilteredSorted()
}

// Selected returns the selected facility ID, empty when none.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinator.Selected()
}

// Filter returns the active category filter.
func (s *Session) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Filter()
}

// UserLocation returns the resolved user position, nil until geolocation
// completes.
func (s *Session) UserLocation() *entities.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userLoc == nil {
		return nil
	}
	loc := *s.userLoc
	return &loc
}

// Dispose tears the session down: it cancels the run context, orphans any
// in-flight fetch, stops the size observer and removes everything the map
// view placed on the canvas. Dispose is idempotent and a disposed session
// ignores all further calls.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return
	}
	s.open = false
	s.disposed = true
	s.token++
	s.cancel()
	if s.stopResize != nil {
		s.stopResize()
		s.stopResize = nil
	}
	s.mapView.Close()
	s.logger.Info().Msg("Session disposed")
}

func (s *Session) snapshotLocked() snapshot {
	snap := snapshot{
		records:    s.store.FilteredSorted(),
		selectedID: s.coordinator.Selected(),
		user:       s.userLoc,
	}
	if snap.selectedID != "" {
		if f, ok := s.store.Get(snap.selectedID); ok {
			snap.selected = f
		}
	}
	return snap
}
