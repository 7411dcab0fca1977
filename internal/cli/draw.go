package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spotlight/pkg/cache"
	"github.com/matzehuels/spotlight/pkg/campaign"
	"github.com/matzehuels/spotlight/pkg/clock"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/pipeline"
	"github.com/matzehuels/spotlight/pkg/ring"
	"github.com/matzehuels/spotlight/pkg/sound"
	"github.com/matzehuels/spotlight/pkg/storage"
)

// drawOpts holds the command-line flags for the draw command.
type drawOpts struct {
	roster    string
	count     int
	listing   int
	winner    string
	seed      uint64
	timeScale float64
	width     float64
	height    float64
	sound     bool
	plain     bool
	noRecord  bool
	noCache   bool
	refresh   bool
	campaign  bool
}

// drawCommand creates the draw command that runs a ceremony in the terminal.
func (c *CLI) drawCommand() *cobra.Command {
	var o drawOpts

	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Run a draw in the terminal",
		Long: `Run a draw in the terminal.

Participants come from a roster file (--participants), numbered placeholders
(--count) or a data-source listing (--listing), in which case the listing's
winner is used unless --winner overrides it. Without any of these a built-in
demo roster takes part. The spotlight sweeps the rings,
participants are eliminated one by one and the winner is revealed. Press
enter to dismiss the announcement or q to abort.

With --campaign a simulated campaign fills to 100% first, with sign-ups
drawn from the participants, and the draw starts once it completes.

Finished draws are recorded and can be listed with "spotlight history".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				o.seed = rand.Uint64()
			}
			if !cmd.Flags().Changed("time-scale") {
				o.timeScale = c.Config.Draw.TimeScale
			}
			if !cmd.Flags().Changed("width") {
				o.width = c.Config.Layout.Width
			}
			if !cmd.Flags().Changed("height") {
				o.height = c.Config.Layout.Height
			}
			return c.runDraw(cmd.Context(), o)
		},
	}

	cmd.Flags().StringVarP(&o.roster, "participants", "p", "", "roster file (.json or text)")
	cmd.Flags().IntVarP(&o.count, "count", "n", 0, "number of placeholder participants")
	cmd.Flags().IntVar(&o.listing, "listing", 0, "draw the participants of a data-source listing")
	cmd.Flags().StringVar(&o.winner, "winner", "", "participant id to win (default: random)")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "random seed (default: random)")
	cmd.Flags().Float64Var(&o.timeScale, "time-scale", 1, "speed factor for every phase (0.5 runs twice as fast)")
	cmd.Flags().Float64Var(&o.width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&o.height, "height", pipeline.DefaultHeight, "viewport height")
	cmd.Flags().BoolVar(&o.sound, "sound", false, "play sound cues")
	cmd.Flags().BoolVar(&o.plain, "plain", false, "log events instead of the interactive view; dismisses automatically")
	cmd.Flags().BoolVar(&o.noRecord, "no-record", false, "do not record the draw")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "bypass the cache when fetching a listing")
	cmd.Flags().BoolVar(&o.campaign, "campaign", false, "simulate the campaign filling up before the draw starts")

	return cmd
}

// entrants is who takes part in a draw and who, if anyone, must win.
type entrants struct {
	participants []draw.Participant
	listingID    int
	winner       string
}

func (c *CLI) runDraw(ctx context.Context, o drawOpts) error {
	cc, err := c.newCache(ctx, o.noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(cc, c.newKeyer(), c.Logger)
	defer runner.Close()

	in, err := c.resolveEntrants(ctx, cc, o)
	if err != nil {
		return err
	}

	l, err := runner.Layout(ctx, pipeline.Options{
		Participants: in.participants,
		Width:        o.width,
		Height:       o.height,
		Geometry:     c.Config.Layout.Options,
		Logger:       c.Logger,
	})
	if err != nil {
		return err
	}

	player := c.newPlayer(o.sound)
	opts := []draw.Option{
		draw.WithContext(ctx),
		draw.WithSeed(o.seed),
		draw.WithTimings(c.Config.Draw.Timings()),
		draw.WithTimeScale(o.timeScale),
		draw.WithCardSize(l.CardWidth, l.CardHeight),
		draw.WithSound(player),
	}
	if in.winner != "" {
		opts = append(opts, draw.WithWinner(in.winner))
	}

	rec := storage.DrawRecord{
		ID:           storage.NewID(),
		ListingID:    in.listingID,
		Participants: in.participants,
		Seed:         storage.Seed(o.seed),
		Width:        l.Width,
		Height:       l.Height,
		StartedAt:    time.Now().UTC(),
	}
	opts = append(opts, draw.WithID(rec.ID))

	var sim *campaign.SimulatorConfig
	if o.campaign {
		sim = &campaign.SimulatorConfig{
			Roster: in.participants,
			Rand:   rand.New(rand.NewPCG(o.seed, o.seed)),
			Sound:  player,
		}
		if o.timeScale > 0 {
			sim.Tick = time.Duration(float64(400*time.Millisecond) * o.timeScale)
			sim.JoinEvery = time.Duration(float64(2500*time.Millisecond) * o.timeScale)
			sim.CompleteDelay = time.Duration(float64(1500*time.Millisecond) * o.timeScale)
		}
	}

	var final draw.State
	if o.plain {
		final, err = runPlainDraw(ctx, c.Logger, in.participants, l, opts, sim)
	} else {
		final, err = runInteractiveDraw(ctx, in.participants, l, opts, sim)
	}
	if err != nil {
		return err
	}

	rec.WinnerID = final.WinnerID
	rec.Eliminated = final.Eliminated
	rec.Outcome = storage.OutcomeOf(final)
	rec.ClosedAt = time.Now().UTC()

	printDrawSummary(in.participants, rec)
	if o.noRecord {
		return nil
	}
	return c.recordDraw(ctx, &rec)
}

// resolveEntrants loads participants from a listing, a roster or placeholders.
func (c *CLI) resolveEntrants(ctx context.Context, cc cache.Cache, o drawOpts) (entrants, error) {
	if o.listing == 0 {
		if o.roster == "" && o.count == 0 {
			return entrants{participants: campaign.DemoRoster, winner: o.winner}, nil
		}
		ps, err := pipeline.Resolve(pipeline.Options{RosterPath: o.roster, Count: o.count})
		if err != nil {
			return entrants{}, err
		}
		return entrants{participants: ps, winner: o.winner}, nil
	}

	client := c.newListings(cc)
	if client == nil {
		return entrants{}, errors.New(errors.ErrCodeUnsupported, "no data source configured (set data_source.base_url)")
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching listing %d...", o.listing))
	spinner.Start()
	d, err := client.Winner(ctx, o.listing, o.refresh)
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return entrants{}, err
	}
	spinner.Stop()

	winner := d.WinnerID
	if o.winner != "" {
		winner = o.winner
	}
	return entrants{participants: d.Participants, listingID: d.ListingID, winner: winner}, nil
}

// newPlayer opens the audio device when enabled, falling back to silence.
func (c *CLI) newPlayer(enabled bool) sound.Player {
	if !enabled {
		return sound.Nop{}
	}
	sp, err := sound.NewSpeaker()
	if err != nil {
		c.Logger.Warn("sound disabled", "error", err)
		return sound.Nop{}
	}
	return sp
}

func (c *CLI) recordDraw(ctx context.Context, rec *storage.DrawRecord) error {
	store, err := c.newStore(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	prog := newProgress(loggerFromContext(ctx))
	if err := store.Save(ctx, rec); err != nil {
		return fmt.Errorf("record draw: %w", err)
	}
	prog.done("Recorded draw " + rec.ID)
	printNewline()
	printNextStep("Render the result", "spotlight render "+rec.ID)
	return nil
}

// =============================================================================
// Session - a sequencer on its own loop
// =============================================================================

// session owns a sequencer, and optionally the campaign simulator that
// precedes it, running on a clock.Loop. Every method may be called from any
// goroutine except the loop's.
type session struct {
	loop *clock.Loop
	seq  *draw.Sequencer
	sim  *campaign.Simulator

	done  chan struct{}
	final draw.State
}

// newSession creates the sequencer and starts its loop. handler runs on the
// loop goroutine.
func newSession(ctx context.Context, ps []draw.Participant, l ring.Layout, handler draw.Handler, opts []draw.Option) (*session, error) {
	s := &session{loop: clock.NewLoop(), done: make(chan struct{})}
	opts = append(opts,
		draw.WithHandler(handler),
		draw.WithCloseFunc(func() {
			s.final = s.seq.Snapshot()
			close(s.done)
		}),
	)
	seq, err := draw.New(s.loop, ps, l.Positions, opts...)
	if err != nil {
		return nil, err
	}
	s.seq = seq
	go s.loop.Run(ctx)
	return s, nil
}

func (s *session) Start() error   { return s.call(s.seq.Start) }
func (s *session) Dismiss() error { return s.call(s.seq.Dismiss) }

// StartCampaign fills a simulated campaign and starts the draw once it
// completes.
func (s *session) StartCampaign(cfg campaign.SimulatorConfig) error {
	onComplete := cfg.OnComplete
	cfg.OnComplete = func() {
		if onComplete != nil {
			onComplete()
		}
		_ = s.seq.Start()
	}
	return s.call(func() error {
		s.sim = campaign.NewSimulator(s.loop, cfg)
		s.sim.Start()
		return nil
	})
}

func (s *session) call(fn func() error) error {
	var err error
	if cerr := s.loop.Call(func() { err = fn() }); cerr != nil {
		return errors.New(errors.ErrCodeInvalidState, "draw is no longer running")
	}
	return err
}

// Stop aborts the campaign and the draw. It is a no-op once the draw has
// closed.
func (s *session) Stop() {
	_ = s.loop.Call(func() {
		if s.sim != nil {
			s.sim.Stop()
		}
		s.seq.Stop()
	})
}

// Finish waits for the draw to close, or stops it right away when stopped
// is set or ctx is done, and returns the final state. It shuts the loop
// down.
func (s *session) Finish(ctx context.Context, stopped bool) draw.State {
	defer s.loop.Close()
	if !stopped {
		select {
		case <-s.done:
			return s.final
		case <-ctx.Done():
		}
	}
	s.Stop()
	var st draw.State
	if err := s.loop.Call(func() { st = s.seq.Snapshot() }); err != nil {
		<-s.loop.Done()
		return s.seq.Snapshot()
	}
	return st
}

// runInteractiveDraw shows the draw in a full-screen bubbletea program.
func runInteractiveDraw(ctx context.Context, ps []draw.Participant, l ring.Layout, opts []draw.Option, sim *campaign.SimulatorConfig) (draw.State, error) {
	var p *tea.Program
	var s *session
	// Send blocks until the program takes the message, which keeps events
	// in order. The model never waits on the loop, and Send returns once
	// the program has exited.
	handler := func(e draw.Event) {
		p.Send(stateMsg{Event: e, State: s.seq.Snapshot()})
	}
	s, err := newSession(ctx, ps, l, handler, opts)
	if err != nil {
		return draw.State{}, err
	}

	m := NewDrawModel(ps, l)
	m.Start = s.Start
	m.Dismiss = s.Dismiss
	if sim != nil {
		cfg := *sim
		cfg.OnProgress = func(pr campaign.Progress) {
			p.Send(campaignMsg{Progress: pr, Feed: s.sim.Feed()})
		}
		m.Start = func() error { return s.StartCampaign(cfg) }
	}

	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	out, err := p.Run()
	if ctx.Err() != nil {
		s.Finish(ctx, true)
		return draw.State{}, ctx.Err()
	}
	if err != nil {
		s.Finish(ctx, true)
		return draw.State{}, err
	}
	fm, _ := out.(DrawModel)
	if fm.Err != nil {
		s.Finish(ctx, true)
		return draw.State{}, fm.Err
	}
	return s.Finish(ctx, fm.Aborted), nil
}

// runPlainDraw logs each event and dismisses the announcement automatically.
func runPlainDraw(ctx context.Context, logger *log.Logger, ps []draw.Participant, l ring.Layout, opts []draw.Option, sim *campaign.SimulatorConfig) (draw.State, error) {
	names := make(map[string]string, len(ps))
	for _, p := range ps {
		names[p.ID] = p.Name
	}

	var s *session
	handler := func(e draw.Event) {
		switch e.Kind {
		case draw.EventStatusTextChanged:
			logger.Info(e.Status)
		case draw.EventParticipantEliminated:
			logger.Debug("eliminated", "participant", names[e.ParticipantID], "at", e.At.Round(time.Millisecond))
		case draw.EventWinnerChosen:
			logger.Info("winner", "participant", names[e.ParticipantID], "at", e.At.Round(time.Millisecond))
		case draw.EventAnnouncementReady:
			// Dismiss after the handler returns, not from inside it.
			s.loop.Do(func() { _ = s.seq.Dismiss() })
		}
	}
	s, err := newSession(ctx, ps, l, handler, opts)
	if err != nil {
		return draw.State{}, err
	}

	if sim != nil {
		cfg := *sim
		cfg.OnProgress = func(pr campaign.Progress) {
			logger.Debug("campaign", "progress", pr.String())
		}
		cfg.OnJoin = func(e campaign.Entry) {
			logger.Info("joined", "participant", e.Participant.Name)
		}
		cfg.OnComplete = func() {
			logger.Info("campaign complete")
		}
		err = s.StartCampaign(cfg)
	} else {
		err = s.Start()
	}
	if err != nil {
		s.Finish(ctx, true)
		return draw.State{}, err
	}

	st := s.Finish(ctx, false)
	if ctx.Err() != nil {
		return st, ctx.Err()
	}
	return st, nil
}

// printDrawSummary prints the outcome of a finished draw.
func printDrawSummary(ps []draw.Participant, rec storage.DrawRecord) {
	printNewline()
	switch rec.Outcome {
	case storage.OutcomeWinner:
		name := rec.WinnerID
		for _, p := range ps {
			if p.ID == rec.WinnerID {
				name = p.Name
			}
		}
		printSuccess("Winner: %s", name)
	case storage.OutcomeInsufficient:
		printWarning(draw.StatusNotEnough)
	default:
		printWarning("Draw aborted")
	}
	printKeyValue("Participants", fmt.Sprintf("%d", len(ps)))
	printKeyValue("Eliminated", fmt.Sprintf("%d", len(rec.Eliminated)))
	printKeyValue("Duration", rec.ClosedAt.Sub(rec.StartedAt).Round(time.Millisecond).String())
}
