package ring

import (
	"math"

	"github.com/matzehuels/spotlight/pkg/errors"
)

const (
	// DefaultCardWidth is the width of a participant card in layout units.
	DefaultCardWidth = 110.0

	// DefaultCardHeight is the height of a participant card in layout units.
	DefaultCardHeight = 110.0

	// DefaultBaseRatio sizes the innermost ring relative to min(width, height).
	DefaultBaseRatio = 0.18

	// DefaultSpacingRatio is the radial distance between rings relative to min(width, height).
	DefaultSpacingRatio = 0.15

	// DefaultMaxRings bounds the number of rings in a layout.
	DefaultMaxRings = 21

	// shrinkFactor is applied to the card footprint on every overflow retry.
	shrinkFactor = 0.85

	// maxShrinkAttempts bounds the overflow retries.
	maxShrinkAttempts = 64
)

// Position is the top-left corner of a card in viewport coordinates.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Options configures the ring geometry. Zero fields fall back to defaults.
type Options struct {
	CardWidth    float64 `json:"card_width,omitempty" toml:"card_width"`
	CardHeight   float64 `json:"card_height,omitempty" toml:"card_height"`
	BaseRatio    float64 `json:"base_ratio,omitempty" toml:"base_ratio"`
	SpacingRatio float64 `json:"spacing_ratio,omitempty" toml:"spacing_ratio"`
	MaxRings     int     `json:"max_rings,omitempty" toml:"max_rings"`
}

// DefaultOptions returns the standard geometry: 110×110 cards, 21 rings.
func DefaultOptions() Options {
	return Options{
		CardWidth:    DefaultCardWidth,
		CardHeight:   DefaultCardHeight,
		BaseRatio:    DefaultBaseRatio,
		SpacingRatio: DefaultSpacingRatio,
		MaxRings:     DefaultMaxRings,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CardWidth <= 0 || !finite(o.CardWidth) {
		o.CardWidth = d.CardWidth
	}
	if o.CardHeight <= 0 || !finite(o.CardHeight) {
		o.CardHeight = d.CardHeight
	}
	if o.BaseRatio <= 0 || !finite(o.BaseRatio) {
		o.BaseRatio = d.BaseRatio
	}
	if o.SpacingRatio <= 0 || !finite(o.SpacingRatio) {
		o.SpacingRatio = d.SpacingRatio
	}
	if o.MaxRings <= 0 {
		o.MaxRings = d.MaxRings
	}
	return o
}

// Layout is a computed ring arrangement.
//
// Positions and Rings are parallel arrays aligned with the input order:
// Positions[i] is where participant i sits and Rings[i] the ring it sits on.
type Layout struct {
	Width      float64    `json:"width" bson:"width"`
	Height     float64    `json:"height" bson:"height"`
	CardWidth  float64    `json:"card_width" bson:"card_width"`
	CardHeight float64    `json:"card_height" bson:"card_height"`
	Scale      float64    `json:"scale" bson:"scale"`
	Positions  []Position `json:"positions" bson:"positions"`
	Rings      []int      `json:"rings" bson:"rings"`
}

// Len returns the number of placed cards.
func (l Layout) Len() int { return len(l.Positions) }

// Center returns the centre of card i.
func (l Layout) Center(i int) Position {
	p := l.Positions[i]
	return Position{X: p.X + l.CardWidth/2, Y: p.Y + l.CardHeight/2}
}

// RingSizes returns the number of cards on each ring, innermost first.
func (l Layout) RingSizes() []int {
	var sizes []int
	for _, r := range l.Rings {
		for len(sizes) <= r {
			sizes = append(sizes, 0)
		}
		sizes[r]++
	}
	return sizes
}

// Compute returns card positions for count participants in a width×height
// viewport using the default geometry. The result has exactly count entries,
// or none when the input is degenerate.
func Compute(count int, width, height float64) []Position {
	return ComputeWithOptions(count, width, height, DefaultOptions()).Positions
}

// Validate reports whether the arguments are inside the layout's input domain.
// Degenerate but valid inputs (zero count or zero dimensions) are accepted.
func Validate(count int, width, height float64) error {
	if err := errors.ValidateCount(count); err != nil {
		return err
	}
	return errors.ValidateViewport(width, height)
}

// ComputeWithOptions is [Compute] with configurable geometry.
//
// Degenerate inputs (count == 0, width == 0, height == 0) and contract
// violations (negative or non-finite values) yield an empty Layout.
func ComputeWithOptions(count int, width, height float64, opts Options) Layout {
	opts = opts.withDefaults()
	l := Layout{Width: width, Height: height, CardWidth: opts.CardWidth, CardHeight: opts.CardHeight, Scale: 1}
	if count <= 0 || width <= 0 || height <= 0 || !finite(width) || !finite(height) {
		return l
	}

	scale := 1.0
	for range maxShrinkAttempts {
		cw, ch := opts.CardWidth*scale, opts.CardHeight*scale
		positions, rings, placed := pack(count, width, height, cw, ch, opts, false)
		if placed == count {
			l.CardWidth, l.CardHeight, l.Scale = cw, ch, scale
			l.Positions, l.Rings = positions, rings
			return l
		}
		scale *= shrinkFactor
	}

	cw, ch := opts.CardWidth*scale, opts.CardHeight*scale
	positions, rings, _ := pack(count, width, height, cw, ch, opts, true)
	l.CardWidth, l.CardHeight, l.Scale = cw, ch, scale
	l.Positions, l.Rings = positions, rings
	return l
}

// pack places up to count cards on at most opts.MaxRings rings and returns how
// many were placed. When spill is set, whatever is left after the ring bound
// is put on the last ring.
func pack(count int, width, height, cw, ch float64, opts Options, spill bool) ([]Position, []int, int) {
	positions := make([]Position, count)
	rings := make([]int, count)

	minDim := math.Min(width, height)
	cx, cy := width/2, height/2
	baseRadius := minDim * opts.BaseRatio
	ringSpacing := minDim * opts.SpacingRatio

	next := 0
	for ring := 0; next < count && ring < opts.MaxRings; ring++ {
		radius := baseRadius + float64(ring)*ringSpacing
		circumference := 2 * math.Pi * radius

		maxInRing := int(math.Floor(circumference / cw))
		if maxInRing <= 0 {
			maxInRing = 1
		}
		inRing := min(count-next, maxInRing)
		if spill && ring == opts.MaxRings-1 {
			inRing = count - next
		}

		angleStep := 2 * math.Pi / float64(inRing)
		offset := float64(ring%2) * (angleStep / 2)
		for i := range inRing {
			angle := float64(i)*angleStep + offset
			positions[next] = Position{
				X: cx + radius*math.Cos(angle) - cw/2,
				Y: cy + radius*math.Sin(angle) - ch/2,
			}
			rings[next] = ring
			next++
		}
	}
	return positions[:next], rings[:next], next
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
