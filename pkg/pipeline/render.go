package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/render/nodelink"
	"github.com/matzehuels/spotlight/pkg/render/stage/sink"
	"github.com/matzehuels/spotlight/pkg/render/stage/styles"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// Render generates output artifacts in the requested formats.
func Render(l ring.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	svgOpts, err := buildSVGOptions(opts)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(l, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
		case FormatPDF:
			data, err = sink.RenderPDF(l, sink.WithPDFSVGOptions(svgOpts...))
		case FormatJSON:
			data, err = sink.RenderJSON(l, svgOpts...)
		case FormatDOT:
			data = []byte(nodelink.ToDOT(l, names(opts.Participants), nodelink.Options{Chain: opts.Chain}))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return nil, errors.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// MarshalLayout serializes a layout for caching.
func MarshalLayout(l ring.Layout) ([]byte, error) { return json.Marshal(l) }

// UnmarshalLayout reverses [MarshalLayout].
func UnmarshalLayout(data []byte) (ring.Layout, error) {
	var l ring.Layout
	err := json.Unmarshal(data, &l)
	return l, err
}

func buildSVGOptions(opts Options) ([]sink.SVGOption, error) {
	style, err := styles.ByName(opts.Style)
	if err != nil {
		return nil, err
	}
	svgOpts := []sink.SVGOption{sink.WithStyle(style)}
	if len(opts.Participants) > 0 {
		svgOpts = append(svgOpts, sink.WithParticipants(opts.Participants))
	}
	if opts.State != nil {
		svgOpts = append(svgOpts, sink.WithState(*opts.State))
	}
	if opts.Rings {
		svgOpts = append(svgOpts, sink.WithRings())
	}
	if opts.Status {
		svgOpts = append(svgOpts, sink.WithStatus())
	}
	return svgOpts, nil
}

func names(ps []draw.Participant) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
