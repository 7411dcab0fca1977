// Package nodelink exports ring layouts as Graphviz graphs.
//
// Every card becomes a fixed-size box pinned at its layout centre, so
// Graphviz reproduces the ring arrangement instead of computing its own.
// This is useful for inspecting layouts with the Graphviz toolchain or for
// embedding them in documents that already use it.
//
//	dot := nodelink.ToDOT(layout, names, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// With [Options.Chain] consecutive slots are linked, which traces the order
// in which the spotlight walks the ring. [Options.Detailed] adds slot, ring
// and coordinates to each label.
//
// [RenderSVG] uses [github.com/goccy/go-graphviz] in process; PDF and PNG
// conversion requires librsvg (rsvg-convert).
package nodelink
