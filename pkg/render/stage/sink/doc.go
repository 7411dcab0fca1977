// Package sink renders a ring layout, optionally overlaid with a draw state,
// to output formats.
//
// # Formats
//
//   - SVG: the stage as a scalable image ([RenderSVG])
//   - JSON: card geometry and state for custom front ends ([RenderJSON])
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster image output (requires rsvg-convert)
//
// # Usage
//
//	svg := sink.RenderSVG(layout,
//	    sink.WithParticipants(participants),
//	    sink.WithState(seq.Snapshot()),
//	    sink.WithRings(),
//	)
//
// Without [WithState] every card is drawn active and no spotlight is shown.
// With it, eliminated cards are dimmed, the lit slot gets the spotlight
// marker and, once revealed, the winner's card is highlighted.
//
// # PDF and PNG
//
// These require librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
package sink
