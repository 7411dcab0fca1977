package sink

import (
	"encoding/json"

	"github.com/matzehuels/spotlight/pkg/render/stage/styles"
	"github.com/matzehuels/spotlight/pkg/ring"
)

type jsonOutput struct {
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	CardWidth  float64    `json:"card_width"`
	CardHeight float64    `json:"card_height"`
	Scale      float64    `json:"scale"`
	Style      string     `json:"style,omitempty"`
	Phase      string     `json:"phase,omitempty"`
	Status     string     `json:"status,omitempty"`
	Spotlight  *int       `json:"spotlight,omitempty"`
	Cards      []jsonCard `json:"cards"`
	Rings      []jsonRing `json:"rings,omitempty"`
}

type jsonCard struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Slot  int     `json:"slot"`
	Ring  int     `json:"ring"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	State string  `json:"state"`
}

type jsonRing struct {
	Index  int     `json:"index"`
	Radius float64 `json:"radius"`
	Cards  int     `json:"cards"`
}

var cardStateNames = map[styles.CardState]string{
	styles.CardActive:     "active",
	styles.CardEliminated: "eliminated",
	styles.CardWinner:     "winner",
}

// RenderJSON encodes the stage as indented JSON. It accepts the same
// options as [RenderSVG]; [WithRings] adds ring radii.
func RenderJSON(l ring.Layout, opts ...SVGOption) ([]byte, error) {
	s := newStage(opts...)
	out := jsonOutput{
		Width:      l.Width,
		Height:     l.Height,
		CardWidth:  l.CardWidth,
		CardHeight: l.CardHeight,
		Scale:      l.Scale,
		Style:      s.style.Name(),
		Cards:      make([]jsonCard, 0, l.Len()),
	}

	cards := s.cards(l)
	for i, c := range cards {
		out.Cards = append(out.Cards, jsonCard{
			ID:    c.ID,
			Name:  c.Label,
			Slot:  c.Slot,
			Ring:  l.Rings[i],
			X:     c.X,
			Y:     c.Y,
			State: cardStateNames[c.State],
		})
	}

	if s.state != nil {
		out.Phase = s.state.Phase.String()
		out.Status = s.state.Status
		if lit := s.spotlight(len(cards)); lit >= 0 {
			out.Spotlight = &lit
		}
	}
	if s.rings {
		sizes := l.RingSizes()
		for _, r := range ringGuides(l) {
			out.Rings = append(out.Rings, jsonRing{Index: r.Index, Radius: r.Radius, Cards: sizes[r.Index]})
		}
	}
	return json.MarshalIndent(out, "", "  ")
}
