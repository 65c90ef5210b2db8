package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lifexia/healthnav/internal/mapsession"
)

// Surface implements the list rendering port on a plain text stream. Every
// Present call appends a full listing, the closest a scrolling terminal gets
// to the replace-everything contract. Safe for calls from any goroutine.
type Surface struct {
	mu  sync.Mutex
	out io.Writer
}

var _ mapsession.ListSurface = (*Surface)(nil)

func NewSurface(out io.Writer) *Surface {
	return &Surface{out: out}
}

// Present writes the list model: a status line for the card-less states, a
// numbered card listing otherwise. The selected card is prefixed with ">".
func (s *Surface) Present(model mapsession.ListModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if model.State == mapsession.ListStateReady {
		writeCards(&b, model.Cards)
	} else {
		fmt.Fprintf(&b, "\n%s\n", model.Status)
	}
	_, _ = io.WriteString(s.out, b.String())
}

func writeCards(b *strings.Builder, cards []mapsession.Card) {
	fmt.Fprintf(b, "\n%d facilities\n", len(cards))
	for i, card := range cards {
		prefix := " "
		if card.Selected {
			prefix = ">"
		}
		fmt.Fprintf(b, "%s %2d. %s [%s]", prefix, i+1, card.Name, card.Category)
		if card.DistanceText != "" {
			fmt.Fprintf(b, " %s", card.DistanceText)
			if card.TravelText != "" {
				fmt.Fprintf(b, ", %s", card.TravelText)
			}
		}
		if badges := cardBadges(card); badges != "" {
			fmt.Fprintf(b, " (%s)", badges)
		}
		b.WriteString("\n")
		if card.Address != "" {
			fmt.Fprintf(b, "       %s\n", card.Address)
		}
		if card.Contact != "" {
			fmt.Fprintf(b, "       Call: %s\n", card.Contact)
		}
	}
}

// cardBadges joins the at-a-glance badges: service hours, emergency cover,
// accepted schemes and the rating.
func cardBadges(card mapsession.Card) string {
	var badges []string
	if card.Open24x7 {
		badges = append(badges, "24x7")
	}
	if card.Emergency {
		badges = append(badges, "Emergency")
	}
	if card.AyushmanCard {
		badges = append(badges, "Ayushman")
	}
	if card.MaaCard {
		badges = append(badges, "Maa")
	}
	if card.RatingText != "" {
		badges = append(badges, card.RatingText+"*")
	}
	return strings.Join(badges, ", ")
}
