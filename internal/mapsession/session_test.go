package mapsession_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/domain/providers"
	"github.com/lifexia/healthnav/internal/mapsession"
)

func ahmedabadRecords() []*entities.Facility {
	return []*entities.Facility{
		fac("h1", "City Hospital", "Multi-Specialty Hospital", 23.0301, 72.5800),
		fac("h2", "Shalby Hospital", "Hospital", 23.0102, 72.5100),
		fac("p1", "Wellness Pharmacy", "Pharmacy", 23.0250, 72.5750),
	}
}

func newTestSession(source providers.FacilitySource, locator providers.Locator, canvas *fakeCanvas, surface *fakeSurface, sizes mapsession.SizeObserver) *mapsession.Session {
	cfg := mapsession.Config{
		DefaultCenter: testCenter,
		LocateTimeout: 100 * time.Millisecond,
		FetchTimeout:  2 * time.Second,
	}
	return mapsession.NewSession(cfg, source, locator, canvas, surface, sizes, zerolog.Nop())
}

func TestSessionOpenLoadsFacilities(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}
	locator := &fakeLocator{loc: entities.Location{Latitude: 23.0400, Longitude: 72.6000}}

	s := newTestSession(source, locator, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	loading := waitForState(t, surface, mapsession.ListStateLoading)
	assert.Equal(t, mapsession.StatusScanning, loading.Status)

	ready := waitForState(t, surface, mapsession.ListStateReady)
	assert.Len(t, ready.Cards, 3)
	assert.Len(t, canvas.liveFacilityMarkers(), 3)
	assert.Equal(t, 1, canvas.userMarkerAdds())

	q, ok := source.queryAt(0)
	require.True(t, ok)
	require.NotNil(t, q.Center)
	assert.InDelta(t, 23.0400, q.Center.Latitude, 1e-9)
	assert.InDelta(t, 72.6000, q.Center.Longitude, 1e-9)
	assert.Empty(t, q.Category, "the all filter must not narrow the query")
}

func TestSessionFallsBackWhenLocatorTimesOut(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}

	s := newTestSession(source, &fakeLocator{block: true}, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	waitForState(t, surface, mapsession.ListStateReady)

	user := s.UserLocation()
	require.NotNil(t, user)
	assert.Equal(t, testCenter, *user)

	q, ok := source.queryAt(0)
	require.True(t, ok)
	require.NotNil(t, q.Center)
	assert.Equal(t, testCenter, *q.Center)
}

func TestSessionWithoutLocatorUsesDefaultCenter(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}

	s := newTestSession(source, nil, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	waitForState(t, surface, mapsession.ListStateReady)

	user := s.UserLocation()
	require.NotNil(t, user)
	assert.Equal(t, testCenter, *user)
	assert.Equal(t, 1, canvas.userMarkerAdds())
}

func TestSessionOpenTwiceFails(t *testing.T) {
	surface := newFakeSurface()
	s := newTestSession(&fakeSource{}, nil, &fakeCanvas{}, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	assert.Error(t, s.Open(context.Background()))
}

func TestSessionStaysDisposed(t *testing.T) {
	surface := newFakeSurface()
	s := newTestSession(&fakeSource{}, nil, &fakeCanvas{}, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	s.Dispose()

	assert.Error(t, s.Open(context.Background()))
}

func TestSessionLastFilterWins(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()

	hospital := fac("h1", "City Hospital", "Hospital", 23.0301, 72.5800)
	pharmacy := fac("p1", "Wellness Pharmacy", "Pharmacy", 23.0250, 72.5750)

	release := make(chan struct{})
	returned := make(chan struct{}, 1)
	source := &fakeSource{}
	source.respond = func(q providers.FacilityQuery) ([]*entities.Facility, error) {
		switch q.Category {
		case "Hospital":
			<-release
			returned <- struct{}{}
			return []*entities.Facility{hospital}, nil
		case "Pharmacy":
			return []*entities.Facility{pharmacy}, nil
		default:
			return []*entities.Facility{hospital, pharmacy}, nil
		}
	}

	s := newTestSession(source, nil, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	waitForState(t, surface, mapsession.ListStateReady)

	s.SetFilter("Hospital")
	s.SetFilter("Pharmacy")

	ready := waitForState(t, surface, mapsession.ListStateReady)
	require.Len(t, ready.Cards, 1)
	assert.Equal(t, "Wellness Pharmacy", ready.Cards[0].Name)

	// Let the slow hospital response land; its token is superseded and it
	// must change nothing.
	close(release)
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("slow fetch never returned")
	}
	time.Sleep(50 * time.Millisecond)

	facilities := s.Facilities()
	require.Len(t, facilities, 1)
	assert.Equal(t, "p1", facilities[0].ID)

	last, ok := surface.last()
	require.True(t, ok)
	require.Len(t, last.Cards, 1)
	assert.Equal(t, "Wellness Pharmacy", last.Cards[0].Name)
}

func TestSessionSelectFocusesBothViews(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}
	locator := &fakeLocator{loc: entities.Location{Latitude: 23.0000, Longitude: 72.5000}}

	s := newTestSession(source, locator, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()
	waitForState(t, surface, mapsession.ListStateReady)

	s.Select("h1")

	view, ok := canvas.lastView()
	require.True(t, ok)
	assert.InDelta(t, 23.0301, view.center.Latitude, 1e-9)
	assert.Equal(t, float64(16), view.zoom)

	marker := canvas.markerByTitle("City Hospital")
	require.NotNil(t, marker)
	assert.True(t, marker.popupOpen)

	shapes := canvas.liveShapes()
	require.Len(t, shapes, 1)
	assert.InDelta(t, 23.0000, shapes[0].from.Latitude, 1e-9)
	assert.InDelta(t, 23.0301, shapes[0].to.Latitude, 1e-9)

	last, ok := surface.last()
	require.True(t, ok)
	assert.Equal(t, "h1", last.SelectedID)
	for _, card := range last.Cards {
		assert.Equal(t, card.ID == "h1", card.Selected)
	}
}

func TestSessionSelectReplacesRoute(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}
	locator := &fakeLocator{loc: testCenter}

	s := newTestSession(source, locator, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()
	waitForState(t, surface, mapsession.ListStateReady)

	s.Select("h1")
	s.Select("h2")

	shapes := canvas.liveShapes()
	require.Len(t, shapes, 1)
	assert.InDelta(t, 23.0102, shapes[0].to.Latitude, 1e-9)
}

func TestSessionSelectUnknownIDClears(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}
	locator := &fakeLocator{loc: testCenter}

	s := newTestSession(source, locator, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()
	waitForState(t, surface, mapsession.ListStateReady)

	s.Select("h1")
	s.Select("does-not-exist")

	assert.Empty(t, s.Selected())
	assert.Empty(t, canvas.liveShapes())

	marker := canvas.markerByTitle("City Hospital")
	require.NotNil(t, marker)
	assert.False(t, marker.popupOpen)

	last, ok := surface.last()
	require.True(t, ok)
	assert.Empty(t, last.SelectedID)
}

func TestSessionFilterDropsHiddenSelection(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()

	hospital := fac("h1", "City Hospital", "Hospital", 23.0301, 72.5800)
	pharmacy := fac("p1", "Wellness Pharmacy", "Pharmacy", 23.0250, 72.5750)
	source := &fakeSource{}
	source.respond = func(q providers.FacilityQuery) ([]*entities.Facility, error) {
		if q.Category == "Hospital" {
			return []*entities.Facility{hospital}, nil
		}
		return []*entities.Facility{hospital, pharmacy}, nil
	}

	s := newTestSession(source, &fakeLocator{loc: testCenter}, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()
	waitForState(t, surface, mapsession.ListStateReady)

	s.Select("p1")
	require.Equal(t, "p1", s.Selected())

	s.SetFilter("Hospital")
	ready := waitForState(t, surface, mapsession.ListStateReady)

	assert.Empty(t, s.Selected())
	assert.Empty(t, ready.SelectedID)
	require.Len(t, ready.Cards, 1)
	assert.Equal(t, "City Hospital", ready.Cards[0].Name)
	assert.Empty(t, canvas.liveShapes())
}

func TestSessionReloadRebuildsMarkers(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}

	s := newTestSession(source, nil, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()
	waitForState(t, surface, mapsession.ListStateReady)

	require.Len(t, canvas.liveFacilityMarkers(), 3)

	s.SetFilter("Pharmacy")
	waitForState(t, surface, mapsession.ListStateReady)

	live := canvas.liveFacilityMarkers()
	require.Len(t, live, 1)
	assert.Equal(t, "Wellness Pharmacy", live[0].opts.Title)
	assert.Equal(t, 1, canvas.userMarkerAdds(), "user marker must not be duplicated across reloads")
}

func TestSessionEmptyResultShowsEmptyState(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: nil}

	s := newTestSession(source, nil, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	empty := waitForState(t, surface, mapsession.ListStateEmpty)
	assert.Equal(t, mapsession.StatusEmpty, empty.Status)
	assert.Empty(t, empty.Cards)
	assert.Empty(t, canvas.liveFacilityMarkers())
}

func TestSessionFetchErrorShowsErrorState(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{err: errors.New("upstream down")}

	s := newTestSession(source, nil, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()

	errModel := waitForState(t, surface, mapsession.ListStateError)
	assert.Equal(t, mapsession.StatusError, errModel.Status)
	assert.Empty(t, s.Facilities())
	assert.Empty(t, canvas.liveFacilityMarkers())
}

func TestSessionSortReordersListWithoutRefetch(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: []*entities.Facility{
		facAt("far", "Far Hospital", "Hospital", 23.2000, 72.7000, 9.5),
		facAt("near", "Near Hospital", "Hospital", 23.0300, 72.5800, 1.2),
		fac("unknown", "Unknown Distance", "Hospital", 23.0500, 72.6000),
	}}

	s := newTestSession(source, nil, canvas, surface, nil)
	require.NoError(t, s.Open(context.Background()))
	defer s.Dispose()
	waitForState(t, surface, mapsession.ListStateReady)

	queriesBefore := source.queryCount()
	addsBefore := canvas.markerAdds()

	s.SetSort(mapsession.SortDistance)

	last, ok := surface.last()
	require.True(t, ok)
	require.Len(t, last.Cards, 3)
	assert.Equal(t, "near", last.Cards[0].ID)
	assert.Equal(t, "far", last.Cards[1].ID)
	assert.Equal(t, "unknown", last.Cards[2].ID, "records without a distance sort last")

	assert.Equal(t, queriesBefore, source.queryCount(), "sorting must not refetch")
	assert.Equal(t, addsBefore, canvas.markerAdds(), "sorting must not rebuild markers")
}

func TestSessionDisposeTearsEverythingDown(t *testing.T) {
	canvas := &fakeCanvas{}
	surface := newFakeSurface()
	source := &fakeSource{records: ahmedabadRecords()}
	sizes := &fakeSizeObserver{}

	s := newTestSession(source, nil, canvas, surface, sizes)
	require.NoError(t, s.Open(context.Background()))
	waitForState(t, surface, mapsession.ListStateReady)

	s.Dispose()

	for _, m := range canvas.liveFacilityMarkers() {
		t.Errorf("marker %q survived dispose", m.opts.Title)
	}
	assert.Zero(t, canvas.liveUserMarkers(), "user marker must be removed on dispose")
	assert.True(t, sizes.isStopped(), "size observer must be stopped on dispose")

	queriesBefore := source.queryCount()
	s.SetFilter("Hospital")
	s.Select("h1")
	s.Dispose()
	assert.Equal(t, queriesBefore, source.queryCount(), "disposed session must not fetch")
	assert.Empty(t, s.Selected())
}
