// Package server exposes layouts, live draws and data-source listings over
// HTTP.
//
// Each live draw runs on its own clock.Loop; handlers reach the draw's
// state only through that loop. Events are streamed to websocket clients
// as JSON, and finished draws are written to a [storage.Store].
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/integrations/listings"
	"github.com/matzehuels/spotlight/pkg/pipeline"
	"github.com/matzehuels/spotlight/pkg/ring"
	"github.com/matzehuels/spotlight/pkg/sound"
	"github.com/matzehuels/spotlight/pkg/storage"
)

// ListingSource fetches a listing's participants and winner.
type ListingSource interface {
	Winner(ctx context.Context, listingID int, refresh bool) (listings.Draw, error)
}

// Options configures a Server. Zero fields fall back to an uncached runner
// and an in-memory store.
type Options struct {
	Runner   *pipeline.Runner
	Store    storage.Store
	Listings ListingSource
	Logger   *log.Logger

	// AllowedOrigins restricts websocket upgrades. Empty allows any origin.
	AllowedOrigins []string

	// Geometry, Timings and TimeScale are the defaults for new draws.
	Geometry  ring.Options
	Timings   draw.Timings
	TimeScale float64

	// Sound plays ceremony cues for every draw.
	Sound sound.Player

	// Retain is how long a finished draw stays in memory before reads go to
	// the store.
	Retain time.Duration
}

// Server serves the HTTP API.
type Server struct {
	opts     Options
	logger   *log.Logger
	registry *Registry
	router   chi.Router
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Retain <= 0 {
		opts.Retain = 5 * time.Minute
	}
	s := &Server{
		opts:     opts,
		logger:   opts.Logger,
		registry: NewRegistry(opts.Store, opts.Logger, opts.Retain),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Registry returns the live draw registry.
func (s *Server) Registry() *Registry { return s.registry }

// Run listens on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout and tears down every live draw.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.registry.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.registry.Close()
	return err
}

// Close tears down every live draw and waits for pending writes.
func (s *Server) Close() { s.registry.Close() }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Post("/draws", s.handleCreateDraw)
		r.Get("/draws", s.handleListDraws)
		r.Route("/draws/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDraw)
			r.Delete("/", s.handleStopDraw)
			r.Post("/dismiss", s.handleDismiss)
			r.Get("/events", s.handleEvents)
			r.Get("/frame.svg", s.handleFrame)
		})
		r.Get("/listings/{id}", s.handleListing)
		r.Get("/sounds/{cue}.wav", s.handleSound)
	})
	return r
}
