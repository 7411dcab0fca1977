package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/pipeline"
	"github.com/matzehuels/spotlight/pkg/storage"
)

// renderCommand creates the render command that draws a recorded draw as it
// ended.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{Status: true}

	cmd := &cobra.Command{
		Use:   "render <draw-id>",
		Short: "Render the final frame of a recorded draw",
		Long: `Render the final frame of a recorded draw.

The layout is recomputed from the recorded participants and viewport, and
the winner, eliminations and closing status are drawn on top.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, png, pdf, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.Style, "style", "", "visual style: dark (default), light")
	cmd.Flags().BoolVar(&opts.Rings, "rings", false, "draw ring guides")
	cmd.Flags().BoolVar(&opts.Status, "status", true, "draw the closing status line")
	cmd.Flags().Float64Var(&opts.Scale, "scale", pipeline.DefaultPNGScale, "PNG scale factor")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, id string, opts pipeline.Options, output string, noCache bool) error {
	rec, err := c.loadRecord(ctx, id)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st := rec.FinalState()
	opts.Participants = rec.Participants
	opts.Width = rec.Width
	opts.Height = rec.Height
	opts.Geometry = c.Config.Layout.Options
	opts.State = &st
	opts.Logger = c.Logger

	l, err := runner.Layout(ctx, opts)
	if err != nil {
		return err
	}
	artifacts, err := runner.Render(ctx, l, opts)
	if err != nil {
		return err
	}

	printSuccess("Rendered draw %s", shortID(rec.ID))
	return writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     "draw-" + shortID(rec.ID),
		output:    output,
	})
}

// loadRecord reads a draw record from the persistent store.
func (c *CLI) loadRecord(ctx context.Context, id string) (*storage.DrawRecord, error) {
	if !storage.ValidID(id) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid draw id %q", id)
	}
	store, err := c.newStore(ctx, true)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rec, err := store.Get(ctx, id)
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, errors.New(errors.ErrCodeDrawNotFound, "draw %s not found", id)
	}
	return rec, err
}

// shortID abbreviates a draw id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
