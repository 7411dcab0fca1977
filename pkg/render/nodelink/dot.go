package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/render"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// pointsPerInch converts layout units to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT generation.
type Options struct {
	// Detailed adds the slot, ring and coordinates to every label.
	Detailed bool

	// Chain connects consecutive slots with edges, tracing the order in
	// which the spotlight visits the cards.
	Chain bool
}

// ToDOT converts a ring layout to Graphviz DOT with every card pinned at its
// layout position. names label the cards by slot; missing names fall back to
// the slot number. The result is meant for the neato engine, which honours
// pinned positions.
func ToDOT(l ring.Layout, names []string, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	fmt.Fprintf(&buf, "  inputscale=%.0f;\n", pointsPerInch)
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, width=%.3f, height=%.3f, fontsize=12];\n",
		l.CardWidth/pointsPerInch, l.CardHeight/pointsPerInch)
	buf.WriteString("\n")

	// Graphviz places y upwards; the layout grows downwards.
	fmt.Fprintf(&buf, "  frame [shape=point, style=invis, pos=\"0,0!\"];\n")
	fmt.Fprintf(&buf, "  frame_end [shape=point, style=invis, pos=\"%.2f,%.2f!\"];\n", l.Width, -l.Height)

	for i := range l.Positions {
		c := l.Center(i)
		fmt.Fprintf(&buf, "  %q [label=%q, pos=\"%.2f,%.2f!\"];\n",
			nodeID(i), fmtLabel(l, names, i, opts.Detailed), c.X, -c.Y)
	}

	if opts.Chain && l.Len() > 1 {
		buf.WriteString("\n")
		for i := 1; i < l.Len(); i++ {
			fmt.Fprintf(&buf, "  %q -- %q [color=grey];\n", nodeID(i-1), nodeID(i))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(i int) string { return "slot" + strconv.Itoa(i) }

func fmtLabel(l ring.Layout, names []string, i int, detailed bool) string {
	label := strconv.Itoa(i + 1)
	if i < len(names) && names[i] != "" {
		label = names[i]
	}
	if !detailed {
		return label
	}
	p := l.Positions[i]
	return fmt.Sprintf("%s\nslot: %d\nring: %d\n(%.0f, %.0f)", label, i, l.Rings[i], p.X, p.Y)
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	return RenderSVGContext(context.Background(), dot)
}

// RenderSVGContext is [RenderSVG] with a caller-supplied context.
func RenderSVGContext(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one sized
// by its viewBox so the output scales like the stage renders.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given scale.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
