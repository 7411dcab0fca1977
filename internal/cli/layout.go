package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/pkg/pipeline"
)

// layoutCommand creates the layout command for computing ring layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute a ring layout and render it",
		Long: `Compute a ring layout and render it.

Participants come from a roster file (--participants, JSON or one name per
line) or are generated as numbered placeholders (--count). The layout is
rendered to each requested format; json describes every card position and
dot emits a pinned Graphviz graph.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}
			c.applyLayoutConfig(cmd, &opts)
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if cached")

	// Input flags
	cmd.Flags().StringVarP(&opts.RosterPath, "participants", "p", "", "roster file (.json or text)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "number of placeholder participants")

	// Layout flags
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "viewport height")

	// Render flags
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, png, pdf, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.Style, "style", "", "visual style: dark (default), light")
	cmd.Flags().BoolVar(&opts.Rings, "rings", false, "draw ring guides")
	cmd.Flags().BoolVar(&opts.Chain, "chain", false, "link neighbouring cards (dot)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultPNGScale, "PNG scale factor")

	return cmd
}

// runLayout computes the layout, renders it and writes the artifacts.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	printSuccess("Layout complete")
	input := opts.RosterPath
	if input == "" {
		input = appName
	}
	if err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
		suffix:    ".layout",
	}); err != nil {
		return err
	}

	printLayoutStats(result.Stats.Participants, result.Stats.Rings, result.Stats.Scale,
		result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	printNewline()
	if opts.RosterPath != "" {
		printNextStep("Run the draw", "spotlight draw -p "+opts.RosterPath)
	} else {
		printNextStep("Run the draw", fmt.Sprintf("spotlight draw -n %d", result.Stats.Participants))
	}
	return nil
}

// artifactWriteParams describes rendered output to write to disk.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string // base name used when output is empty
	output    string
	suffix    string // appended to the input base, e.g. ".layout"
}

// writeArtifacts writes one file per format. A single format goes to output
// verbatim; multiple formats share output (or the input base) as a prefix.
func writeArtifacts(p artifactWriteParams) error {
	base := basePath(p.output, p.input, p.suffix)
	for _, format := range p.formats {
		path := base + "." + format
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		}
		if err := os.WriteFile(path, p.artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// basePath strips the extension from output, or derives a base from input.
func basePath(output, input, suffix string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
