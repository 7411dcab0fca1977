// Package styles defines the visual themes of the draw stage.
//
// A [Style] writes SVG fragments for each element of the stage into a
// buffer. [Light] suits print and PDF export, [Dark] the live display.
// [ByName] resolves the names accepted on the command line.
package styles

import (
	"bytes"

	"github.com/matzehuels/spotlight/pkg/errors"
)

// Style defines the visual appearance of the stage.
type Style interface {
	// Name is the identifier accepted by [ByName].
	Name() string
	// RenderDefs writes SVG <defs> content and the background.
	RenderDefs(buf *bytes.Buffer, width, height float64)
	// RenderRing writes a guide circle.
	RenderRing(buf *bytes.Buffer, r Ring)
	// RenderCard writes the card shape.
	RenderCard(buf *bytes.Buffer, c Card)
	// RenderText writes the card label.
	RenderText(buf *bytes.Buffer, c Card)
	// RenderSpotlight writes the marker around the lit card.
	RenderSpotlight(buf *bytes.Buffer, c Card)
	// RenderStatus writes the status line above the stage.
	RenderStatus(buf *bytes.Buffer, text string, width float64)
}

// CardState is how a card is drawn.
type CardState int

const (
	CardActive CardState = iota
	CardEliminated
	CardWinner
)

// Card contains the data needed to draw one participant card.
type Card struct {
	ID         string
	Label      string
	Slot       int
	X, Y, W, H float64
	CX, CY     float64
	State      CardState
}

// Ring is a guide circle through the card centres of one ring.
type Ring struct {
	Index  int
	CX, CY float64
	Radius float64
}

// Names lists the built-in style names.
var Names = []string{"light", "dark"}

// ByName returns the style registered under name. An empty name is [Dark].
func ByName(name string) (Style, error) {
	switch name {
	case "", "dark":
		return Dark(), nil
	case "light":
		return Light(), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown style %q (want one of %v)", name, Names)
}
