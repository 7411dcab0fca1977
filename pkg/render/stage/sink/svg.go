package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/render/stage/styles"
	"github.com/matzehuels/spotlight/pkg/ring"
)

type SVGOption func(*stage)

// WithParticipants labels the cards. Participants are matched to slots by index.
func WithParticipants(ps []draw.Participant) SVGOption {
	return func(s *stage) { s.participants = ps }
}

// WithState overlays a draw snapshot.
func WithState(st draw.State) SVGOption { return func(s *stage) { s.state = &st } }

// WithRings draws a guide circle per ring.
func WithRings() SVGOption { return func(s *stage) { s.rings = true } }

// WithStatus prints the state's status text above the stage.
func WithStatus() SVGOption { return func(s *stage) { s.status = true } }

func WithStyle(st styles.Style) SVGOption { return func(s *stage) { s.style = st } }

func newStage(opts ...SVGOption) stage {
	s := stage{style: styles.Dark()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.style == nil {
		s.style = styles.Dark()
	}
	return s
}

// RenderSVG renders the stage.
func RenderSVG(l ring.Layout, opts ...SVGOption) []byte {
	s := newStage(opts...)
	cards := s.cards(l)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		l.Width, l.Height, l.Width, l.Height)

	s.style.RenderDefs(&buf, l.Width, l.Height)
	if s.rings {
		for _, r := range ringGuides(l) {
			s.style.RenderRing(&buf, r)
		}
	}
	if lit := s.spotlight(len(cards)); lit >= 0 {
		s.style.RenderSpotlight(&buf, cards[lit])
	}
	for _, c := range cards {
		s.style.RenderCard(&buf, c)
	}
	for _, c := range cards {
		s.style.RenderText(&buf, c)
	}
	if s.status && s.state != nil && s.state.Status != "" {
		s.style.RenderStatus(&buf, s.state.Status, l.Width)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}
