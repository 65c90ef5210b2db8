package mapsession

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/pkg/geo"
)

const (
	// focusZoom is the viewport zoom applied when a facility is selected.
	focusZoom = 16
	// boundsPadding is the screen padding used when fitting the viewport
	// around the user and the selected facility.
	boundsPadding = 48
	// routeWeight is the stroke weight of the connector line.
	routeWeight = 3
)

// MapView projects the session state onto a MapCanvas. It owns every handle
// it creates: facility markers, the single user marker and the single
// connector line. It is not goroutine safe; the owning session serializes
// access.
type MapView struct {
	canvas     MapCanvas
	logger     zerolog.Logger
	markers    map[string]MapMarker
	userMarker MapMarker
	route      MapShape
	focused    string
}

func NewMapView(canvas MapCanvas, logger zerolog.Logger) *MapView {
	return &MapView{
		canvas:  canvas,
		logger:  logger.With().Str("component", "map_view").Logger(),
		markers: make(map[string]MapMarker),
	}
}

// Render replaces every facility marker with one per given record and redraws
// the selection focus. Stale markers never survive a render: the previous set
// is removed wholesale before the new one is placed. Records with invalid
// coordinates are skipped, as are markers the canvas refuses to place; one bad
// record does not take down the pass.
func (v *MapView) Render(facilities []*entities.Facility, selectedID string, user *entities.Location) {
	v.clearMarkers()
	v.clearRoute()
	v.focused = ""

	for _, f := range facilities {
		if !geo.ValidCoordinates(f.Latitude, f.Longitude) {
			v.logger.Warn().Str("facility_id", f.ID).
				Float64("lat", f.Latitude).Float64("lng", f.Longitude).
				Msg("Skipping marker with invalid coordinates")
			continue
		}
		marker, err := v.canvas.AddMarker(f.Location, MarkerOptions{
			Icon:  entities.IconBucketForCategory(f.Category),
			Title: f.Name,
			Popup: popupText(f),
		})
		if err != nil {
			v.logger.Warn().Err(err).Str("facility_id", f.ID).Msg("Canvas rejected marker")
			continue
		}
		v.markers[f.ID] = marker
	}

	if selectedID != "" {
		if f := findByID(facilities, selectedID); f != nil {
			v.Focus(f, user)
		}
	}
}

// Focus centers the viewport on the facility, opens its popup and, when the
// user position is known, draws a straight connector from the user to the
// facility and fits both into view. Any previous connector is removed first
// so at most one line exists.
func (v *MapView) Focus(f *entities.Facility, user *entities.Location) {
	if f == nil {
		return
	}
	marker, ok := v.markers[f.ID]
	if !ok {
		return
	}
	v.clearRoute()
	v.focused = f.ID
	v.canvas.SetView(f.Location, focusZoom)
	marker.OpenPopup()

	if user == nil {
		return
	}
	route, err := v.canvas.DrawLine(*user, f.Location, LineOptions{Dashed: true, Weight: routeWeight})
	if err != nil {
		v.logger.Warn().Err(err).Str("facility_id", f.ID).Msg("Canvas rejected connector line")
		return
	}
	v.route = route
	v.canvas.FitBounds(BoundsOf(*user, f.Location), boundsPadding)
}

// ClearFocus closes the focused popup and removes the connector line.
func (v *MapView) ClearFocus() {
	if v.focused != "" {
		if marker, ok := v.markers[v.focused]; ok {
			marker.ClosePopup()
		}
		v.focused = ""
	}
	v.clearRoute()
}

// SetUserLocation places the user marker. The marker is created once; later
// calls move nothing because the session resolves the user position a single
// time.
func (v *MapView) SetUserLocation(loc entities.Location) {
	if v.userMarker != nil {
		return
	}
	marker, err := v.canvas.AddMarker(loc, MarkerOptions{Icon: IconUser, Title: "You are here"})
	if err != nil {
		v.logger.Warn().Err(err).Msg("Canvas rejected user marker")
		return
	}
	v.userMarker = marker
	v.canvas.SetView(loc, focusZoom-3)
}

// InvalidateSize forwards a container resize to the canvas.
func (v *MapView) InvalidateSize() {
	v.canvas.InvalidateSize()
}

// Close removes every handle the view placed on the canvas.
func (v *MapView) Close() {
	v.clearMarkers()
	v.clearRoute()
	v.focused = ""
	if v.userMarker != nil {
		v.userMarker.Remove()
		v.userMarker = nil
	}
}

func (v *MapView) clearMarkers() {
	for id, marker := range v.markers {
		marker.Remove()
		delete(v.markers, id)
	}
}

func (v *MapView) clearRoute() {
	if v.route != nil {
		v.route.Remove()
		v.route = nil
	}
}

// popupText is the plain-text popup body: name, category and distance when
// carried.
func popupText(f *entities.Facility) string {
	text := f.Name
	if f.Category != "" {
		text = fmt.Sprintf("%s\n%s", text, f.Category)
	}
	if f.Distance != nil {
		text = fmt.Sprintf("%s\n%.2f km away", text, *f.Distance)
	}
	return text
}

func findByID(facilities []*entities.Facility, id string) *entities.Facility {
	for _, f := range facilities {
		if f.ID == id {
			return f
		}
	}
	return nil
}
