// Package pipeline provides the layout → render pipeline shared by the CLI
// and the HTTP API.
//
// By centralizing this logic both entry points apply the same defaults,
// validation and caching.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Resolve: turn a roster file, an explicit participant list or a bare
//     count into the ordered participants of a draw
//  2. Layout: compute the ring positions for the viewport
//  3. Render: draw the stage in the requested formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run on its own or through [Runner.Execute].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Count:   24,
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Layouts and artifacts are cached under keys derived from every input that
// affects them, so repeated requests for the same viewport are served from
// the cache.
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spotlight/pkg/cache"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/render/stage/styles"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default viewport width.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height.
	DefaultHeight = 600.0

	// DefaultStyle is the default stage theme.
	DefaultStyle = "dark"

	// DefaultPNGScale renders PNGs at 2x.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Resolve options. Participants wins over RosterPath, which wins over Count.
	Participants []draw.Participant `json:"participants,omitempty"`
	RosterPath   string             `json:"-"`
	Count        int                `json:"count,omitempty"`

	// Layout options
	Width    float64      `json:"width,omitempty"`
	Height   float64      `json:"height,omitempty"`
	Geometry ring.Options `json:"geometry,omitempty"`
	Refresh  bool         `json:"refresh,omitempty"`

	// Render options
	Formats []string    `json:"formats,omitempty"`
	Style   string      `json:"style,omitempty"`
	Rings   bool        `json:"rings,omitempty"`
	Status  bool        `json:"status,omitempty"`
	Chain   bool        `json:"chain,omitempty"`
	Scale   float64     `json:"scale,omitempty"`
	State   *draw.State `json:"state,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Participants are the resolved entrants in slot order.
	Participants []draw.Participant

	// Layout is the computed ring arrangement.
	Layout ring.Layout

	// LayoutHash is the content hash of the layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Participants int
	Rings        int
	Scale        float64
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	_, err := styles.ByName(style)
	return err
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidateViewport(o.Width, o.Height); err != nil {
		return err
	}
	if len(o.Participants) > 0 {
		o.Count = len(o.Participants)
	}
	return errors.ValidateCount(o.Count)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale <= 0 {
		o.Scale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	g := o.Geometry
	return cache.LayoutKeyOpts{
		Count:        o.Count,
		Width:        o.Width,
		Height:       o.Height,
		CardWidth:    g.CardWidth,
		CardHeight:   g.CardHeight,
		BaseRatio:    g.BaseRatio,
		SpacingRatio: g.SpacingRatio,
		MaxRings:     g.MaxRings,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Everything drawn besides the geometry (names, state, flags) is folded
// into the state hash.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Style:  o.Style,
		Rings:  o.Rings,
		StateHash: cache.HashJSON(struct {
			Participants []draw.Participant `json:"p"`
			State        *draw.State        `json:"s"`
			Status       bool               `json:"st"`
			Chain        bool               `json:"c"`
			Scale        float64            `json:"z"`
		}{o.Participants, o.State, o.Status, o.Chain, o.Scale}),
	}
}

func (o *Options) String() string {
	return fmt.Sprintf("count=%d viewport=%.0fx%.0f formats=%v", o.Count, o.Width, o.Height, o.Formats)
}
