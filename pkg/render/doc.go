// Package render turns ring layouts and draw states into pictures.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg). Both the stage and node-link renderers
// use them.
//
//	svg := sink.RenderSVG(layout, opts...)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Stage
//
// The [stage/sink] subpackage draws the ceremony itself: participant cards
// on their rings, eliminated cards dimmed, the spotlight and the winner.
// Visual themes live in [stage/styles].
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage emits Graphviz DOT with every card pinned at its
// layout position, for inspection with Graphviz tooling.
//
//	dot := nodelink.ToDOT(layout, names)
//	svg, err := nodelink.RenderSVG(dot)
//
// [stage/sink]: github.com/matzehuels/spotlight/pkg/render/stage/sink
// [stage/styles]: github.com/matzehuels/spotlight/pkg/render/stage/styles
// [nodelink]: github.com/matzehuels/spotlight/pkg/render/nodelink
package render
