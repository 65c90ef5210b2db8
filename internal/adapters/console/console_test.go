package console_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifexia/healthnav/internal/adapters/catalog"
	"github.com/lifexia/healthnav/internal/adapters/console"
	"github.com/lifexia/healthnav/internal/adapters/providers/geolocation"
	"github.com/lifexia/healthnav/internal/adapters/sources"
	"github.com/lifexia/healthnav/internal/application/services"
	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/internal/mapsession"
)

func TestSurfacePresentsCards(t *testing.T) {
	var buf bytes.Buffer
	surface := console.NewSurface(&buf)

	surface.Present(mapsession.ListModel{
		State:      mapsession.ListStateReady,
		SelectedID: "h2",
		Cards: []mapsession.Card{
			{
				ID: "h1", Name: "City Hospital", Category: "Multi-Specialty",
				Address: "Navrangpura, Ahmedabad", Contact: "079-26460000",
				DistanceText: "1.24 km", TravelText: "3 min", Emergency: true,
			},
			{
				ID: "h2", Name: "Apollo Pharmacy", Category: "Pharmacy",
				Selected: true, Open24x7: true,
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "2 facilities")
	assert.Contains(t, out, "City Hospital [Multi-Specialty] 1.24 km, 3 min (Emergency)")
	assert.Contains(t, out, "Navrangpura, Ahmedabad")
	assert.Contains(t, out, "Call: 079-26460000")
	assert.Contains(t, out, ">  2. Apollo Pharmacy [Pharmacy] (24x7)")
}

func TestSurfacePresentsStatusStates(t *testing.T) {
	var buf bytes.Buffer
	surface := console.NewSurface(&buf)

	surface.Present(mapsession.ListModel{State: mapsession.ListStateLoading, Status: mapsession.StatusScanning})
	surface.Present(mapsession.ListModel{State: mapsession.ListStateEmpty, Status: mapsession.StatusEmpty})

	out := buf.String()
	assert.Contains(t, out, mapsession.StatusScanning)
	assert.Contains(t, out, mapsession.StatusEmpty)
	assert.NotContains(t, out, "facilities")
}

func TestCanvasHandsOutWorkingHandles(t *testing.T) {
	canvas := console.NewCanvas(zerolog.Nop())

	marker, err := canvas.AddMarker(entities.Location{Latitude: 23.0225, Longitude: 72.5714}, mapsession.MarkerOptions{
		Icon:  entities.IconHospital,
		Title: "City Hospital",
	})
	require.NoError(t, err)
	require.NotNil(t, marker)
	marker.OpenPopup()
	marker.ClosePopup()
	marker.Remove()
	marker.Remove()

	shape, err := canvas.DrawLine(
		entities.Location{Latitude: 23.0225, Longitude: 72.5714},
		entities.Location{Latitude: 23.0450, Longitude: 72.5980},
		mapsession.LineOptions{Dashed: true, Weight: 3},
	)
	require.NoError(t, err)
	require.NotNil(t, shape)
	shape.Remove()

	canvas.SetView(entities.Location{Latitude: 23.0225, Longitude: 72.5714}, 16)
	canvas.FitBounds(mapsession.BoundsOf(
		entities.Location{Latitude: 23.0225, Longitude: 72.5714},
		entities.Location{Latitude: 23.0450, Longitude: 72.5980},
	), 48)
	canvas.InvalidateSize()
}

// syncBuffer collects surface output across goroutines; session renders land
// from the fetch goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestSessionRendersCatalogOnConsole(t *testing.T) {
	out := &syncBuffer{}
	locations := services.NewLocationService(
		catalog.NewBuiltinCatalog(), nil, nil, services.LocationConfig{}, zerolog.Nop(),
	)

	session := mapsession.NewSession(
		mapsession.Config{
			DefaultCenter: entities.Location{Latitude: 23.0225, Longitude: 72.5714},
		},
		sources.NewServiceSource(locations),
		geolocation.NewFixedLocator(23.0225, 72.5714),
		console.NewCanvas(zerolog.Nop()),
		console.NewSurface(out),
		nil,
		zerolog.Nop(),
	)
	require.NoError(t, session.Open(context.Background()))
	defer session.Dispose()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "18 facilities")
	}, 2*time.Second, 10*time.Millisecond, "initial listing never rendered")

	session.SetFilter("pharmacy")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "3 facilities")
	}, 2*time.Second, 10*time.Millisecond, "filtered listing never rendered")
}
