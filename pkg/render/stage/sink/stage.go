package sink

import (
	"math"
	"strconv"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/render/stage/styles"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// stage is the resolved input shared by every sink.
type stage struct {
	participants []draw.Participant
	state        *draw.State
	style        styles.Style
	rings        bool
	status       bool
}

func (s *stage) label(i int) (id, name string) {
	if i < len(s.participants) {
		p := s.participants[i]
		if p.Name == "" {
			return p.ID, p.ID
		}
		return p.ID, p.Name
	}
	id = "slot-" + strconv.Itoa(i)
	return id, strconv.Itoa(i + 1)
}

func (s *stage) cardState(id string) styles.CardState {
	if s.state == nil {
		return styles.CardActive
	}
	if s.state.WinnerID == id {
		return styles.CardWinner
	}
	if s.state.IsEliminated(id) {
		return styles.CardEliminated
	}
	return styles.CardActive
}

func (s *stage) cards(l ring.Layout) []styles.Card {
	cards := make([]styles.Card, l.Len())
	for i, p := range l.Positions {
		id, name := s.label(i)
		c := l.Center(i)
		cards[i] = styles.Card{
			ID:    id,
			Label: name,
			Slot:  i,
			X:     p.X, Y: p.Y,
			W: l.CardWidth, H: l.CardHeight,
			CX: c.X, CY: c.Y,
			State: s.cardState(id),
		}
	}
	return cards
}

// spotlight returns the lit slot, or -1.
func (s *stage) spotlight(n int) int {
	if s.state == nil || s.state.Spotlight < 0 || s.state.Spotlight >= n {
		return -1
	}
	if s.state.Phase == draw.PhaseClosed || s.state.Stopped {
		return -1
	}
	return s.state.Spotlight
}

// ringGuides returns one circle per ring through its card centres.
func ringGuides(l ring.Layout) []styles.Ring {
	cx, cy := l.Width/2, l.Height/2
	var guides []styles.Ring
	for i, r := range l.Rings {
		if r < len(guides) {
			continue
		}
		c := l.Center(i)
		guides = append(guides, styles.Ring{
			Index:  r,
			CX:     cx,
			CY:     cy,
			Radius: math.Hypot(c.X-cx, c.Y-cy),
		})
	}
	return guides
}
