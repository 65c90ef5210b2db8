package mapsession

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	"github.com/lifexia/healthnav/pkg/geo"
)

// ListState is the presentation state of the facility list.
type ListState string

const (
	ListStateLoading ListState = "loading"
	ListStateReady   ListState = "ready"
	ListStateEmpty   ListState = "empty"
	ListStateError   ListState = "error"
)

// Status lines shown while the list has no cards to show.
const (
	StatusScanning = "Scanning nearby facilities..."
	StatusEmpty    = "No facilities found. Try a different filter."
	StatusError    = "Unable to load facilities. Please try again."
)

// benefitPreviewLimit caps the scheme-benefit text carried on a card.
const benefitPreviewLimit = 100

// ListSurface is the rendering capability the list view runs against. The
// surface receives the complete model on every change and replaces whatever
// it showed before.
type ListSurface interface {
	Present(model ListModel)
}

// ListModel is everything the surface needs to draw the list: the state, a
// status line for the card-less states and the cards themselves.
type ListModel struct {
	State      ListState
	Status     string
	Cards      []Card
	SelectedID string
}

// Card is the fully prepared projection of one facility. All derived strings
// are computed here so surfaces only lay data out.
type Card struct {
	ID            string
	Name          string
	Category      string
	Speciality    string
	Address       string
	Contact       string
	Icon          entities.IconBucket
	DistanceText  string
	TravelText    string
	RatingText    string
	Timing        string
	Open24x7      bool
	Emergency     bool
	AyushmanCard  bool
	MaaCard       bool
	Benefit       string
	Services      []string
	DirectionsURL string
	CallURL       string
	ShareURL      string
	Selected      bool
}

// ListView projects the session state onto a ListSurface. It is not goroutine
// safe; the owning session serializes access.
type ListView struct {
	surface ListSurface
	logger  zerolog.Logger
}

func NewListView(surface ListSurface, logger zerolog.Logger) *ListView {
	return &ListView{
		surface: surface,
		logger:  logger.With().Str("component", "list_view").Logger(),
	}
}

// Loading presents the loading state with the given status line.
func (v *ListView) Loading(status string) {
	v.surface.Present(ListModel{State: ListStateLoading, Status: status})
}

// Error presents the error state. The empty and error states are distinct so
// surfaces can offer a retry affordance only where retrying makes sense.
func (v *ListView) Error(status string) {
	v.surface.Present(ListModel{State: ListStateError, Status: status})
}

// Render presents one card per facility, marking the selected one. An empty
// record set presents the empty state instead.
func (v *ListView) Render(facilities []*entities.Facility, selectedID string) {
	if len(facilities) == 0 {
		v.surface.Present(ListModel{State: ListStateEmpty, Status: StatusEmpty})
		return
	}
	cards := make([]Card, 0, len(facilities))
	for _, f := range facilities {
		cards = append(cards, BuildCard(f, selectedID))
	}
	v.surface.Present(ListModel{State: ListStateReady, Cards: cards, SelectedID: selectedID})
}

// BuildCard derives the presentation card for one facility.
func BuildCard(f *entities.Facility, selectedID string) Card {
	card := Card{
		ID:            f.ID,
		Name:          f.Name,
		Category:      f.Category,
		Speciality:    f.Speciality,
		Address:       f.Address,
		Contact:       f.Contact,
		Icon:          entities.IconBucketForCategory(f.Category),
		Timing:        f.Timing,
		Open24x7:      f.Open24x7,
		Emergency:     f.Emergency,
		AyushmanCard:  f.AyushmanCard,
		MaaCard:       f.MaaCard,
		Benefit:       truncateBenefit(f.Benefit),
		Services:      f.Services,
		DirectionsURL: geo.DirectionsURL(f.Name, f.Latitude, f.Longitude),
		ShareURL:      geo.ShareURL(ShareText(f)),
		Selected:      f.ID == selectedID,
	}
	if f.Distance != nil {
		card.DistanceText = fmt.Sprintf("%.2f km", *f.Distance)
	}
	if f.EstimatedTime != nil {
		card.TravelText = fmt.Sprintf("%d min", *f.EstimatedTime)
	}
	if f.Rating != nil {
		card.RatingText = fmt.Sprintf("%.1f", *f.Rating)
	}
	if f.Contact != "" {
		card.CallURL = "tel:" + strings.ReplaceAll(f.Contact, " ", "")
	}
	return card
}

// ShareText is the plain-text facility summary used for the share action:
// name, category, contact, address, supported schemes and a directions link.
func ShareText(f *entities.Facility) string {
	var b strings.Builder
	b.WriteString(f.Name)
	if f.Category != "" {
		b.WriteString("\n")
		b.WriteString(f.Category)
	}
	if f.Speciality != "" {
		b.WriteString("\n")
		b.WriteString(f.Speciality)
	}
	if f.Contact != "" {
		b.WriteString("\nContact: ")
		b.WriteString(f.Contact)
	}
	if f.Address != "" {
		b.WriteString("\nAddress: ")
		b.WriteString(f.Address)
	}
	var schemes []string
	if f.AyushmanCard {
		schemes = append(schemes, "Ayushman Card")
	}
	if f.MaaCard {
		schemes = append(schemes, "Maa Card")
	}
	if len(schemes) > 0 {
		b.WriteString("\nSchemes: ")
		b.WriteString(strings.Join(schemes, ", "))
	}
	b.WriteString("\nDirections: ")
	b.WriteString(geo.DirectionsURL(f.Name, f.Latitude, f.Longitude))
	return b.String()
}

func truncateBenefit(benefit string) string {
	if len(benefit) <= benefitPreviewLimit {
		return benefit
	}
	return strings.TrimSpace(benefit[:benefitPreviewLimit]) + "..."
}
