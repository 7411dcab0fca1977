// Package ring arranges participant cards into concentric rings around the
// centre of a viewport.
//
// # Algorithm
//
// Participants are taken off a work-list in input order and packed ring by
// ring, innermost first. Ring r has radius
//
//	0.18·min(w,h) + r·0.15·min(w,h)
//
// and holds floor(2π·radius / cardWidth) cards (at least one). Cards on a ring
// are spaced at equal angles; odd rings are rotated by half a step so that
// neighbouring rings interleave instead of lining up radially.
//
// Returned positions are the top-left corners of the cards, so a renderer can
// place a card of the reported footprint directly at (X, Y).
//
// # Overflow
//
// Layouts stop after [DefaultMaxRings] rings. When participants remain after
// the last ring, the layout is recomputed with a smaller card footprint until
// every participant has a slot. [Layout.Scale] reports the applied factor.
//
// # Purity
//
// [Compute] and [ComputeWithOptions] are pure functions of their arguments:
// the same count and viewport always produce bit-identical output. Callers
// recompute the full layout whenever the count or viewport changes.
package ring
