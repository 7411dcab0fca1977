package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/internal/server"
	"github.com/matzehuels/spotlight/pkg/observability"
	"github.com/matzehuels/spotlight/pkg/pipeline"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
		sound   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for stage displays",
		Long: `Serve the HTTP API for stage displays.

Draws are created with POST /api/v1/draws and streamed to displays over
/api/v1/draws/{id}/events. Finished draws are recorded in the configured
store; the default in-memory store keeps them until the server exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("sound") {
				c.Config.Server.Sound = sound
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&sound, "sound", false, "play cues on this machine's audio device")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(cc, c.newKeyer(), c.Logger)
	defer runner.Close()

	store, err := c.newStore(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	hooks := observability.NewLogHooks(c.Logger)
	hooks.Register()
	defer observability.Reset()

	opts := server.Options{
		Runner:         runner,
		Store:          store,
		Logger:         c.Logger,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		Geometry:       c.Config.Layout.Options,
		Timings:        c.Config.Draw.Timings(),
		TimeScale:      c.Config.Draw.TimeScale,
		Sound:          c.newPlayer(c.Config.Server.Sound),
	}
	// A nil *listings.Client must not become a non-nil interface.
	if client := c.newListings(cc); client != nil {
		opts.Listings = client
	}

	srv := server.New(opts)
	printInfo("Serving on %s", c.Config.Server.Addr)
	if err := srv.Run(ctx, c.Config.Server.Addr, c.Config.Server.ShutdownTimeout.Duration); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
