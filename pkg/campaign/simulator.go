package campaign

import (
	"math/rand/v2"
	"time"

	"github.com/matzehuels/spotlight/pkg/clock"
	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/sound"
)

// SimulatorConfig configures a Simulator. Zero values use the defaults.
type SimulatorConfig struct {
	// Tick is the interval between progress increments (default 400ms).
	Tick time.Duration
	// MaxStep is the largest increment per tick in percent (default 5).
	MaxStep float64
	// JoinEvery is the interval between feed entries (default 2.5s).
	JoinEvery time.Duration
	// CompleteDelay is the wait between reaching 100% and OnComplete (default 1.5s).
	CompleteDelay time.Duration
	// Roster is sampled for feed entries (default DemoRoster).
	Roster []draw.Participant
	// FeedSize bounds the feed (default 8).
	FeedSize int

	Rand  *rand.Rand
	Sound sound.Player

	// OnProgress is called after every increment.
	OnProgress func(Progress)
	// OnJoin is called for every new feed entry.
	OnJoin func(Entry)
	// OnComplete is called once, CompleteDelay after the campaign fills.
	OnComplete func()
}

func (c SimulatorConfig) withDefaults() SimulatorConfig {
	if c.Tick <= 0 {
		c.Tick = 400 * time.Millisecond
	}
	if c.MaxStep <= 0 {
		c.MaxStep = 5
	}
	if c.JoinEvery <= 0 {
		c.JoinEvery = 2500 * time.Millisecond
	}
	if c.CompleteDelay <= 0 {
		c.CompleteDelay = 1500 * time.Millisecond
	}
	if len(c.Roster) == 0 {
		c.Roster = DemoRoster
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.Sound == nil {
		c.Sound = sound.Nop{}
	}
	return c
}

// Simulator fills a campaign with random progress and sign-ups.
// Like the draw sequencer it runs entirely on its scheduler's goroutine.
type Simulator struct {
	cfg    SimulatorConfig
	sched  clock.Scheduler
	timers *clock.Group

	progress Progress
	feed     *Feed
	done     bool
}

// NewSimulator returns a stopped Simulator.
func NewSimulator(sched clock.Scheduler, cfg SimulatorConfig) *Simulator {
	cfg = cfg.withDefaults()
	return &Simulator{
		cfg:   cfg,
		sched: sched,
		feed:  NewFeed(cfg.FeedSize),
	}
}

// Start begins ticking from zero. Calling Start again restarts the campaign.
func (s *Simulator) Start() {
	s.Stop()
	s.timers = clock.NewGroup(s.sched)
	s.progress = 0
	s.done = false
	s.feed.Reset()
	s.timers.After(s.cfg.Tick, s.tick)
	s.timers.After(s.cfg.JoinEvery, s.join)
}

// Stop cancels all pending ticks.
func (s *Simulator) Stop() {
	if s.timers != nil {
		s.timers.Cancel()
	}
}

// Progress returns the current percentage.
func (s *Simulator) Progress() Progress { return s.progress }

// Feed returns the recent sign-ups, newest first.
func (s *Simulator) Feed() []Entry { return s.feed.Entries() }

// Complete reports whether the campaign has filled.
func (s *Simulator) Complete() bool { return s.done }

func (s *Simulator) tick() {
	s.progress = s.progress.Add(s.cfg.Rand.Float64() * s.cfg.MaxStep)
	s.cfg.Sound.Play(sound.CueProgress)
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(s.progress)
	}
	if s.progress.Complete() {
		s.done = true
		s.timers.Cancel()
		// A fresh group keeps the completion timer cancellable by Stop.
		s.timers = clock.NewGroup(s.sched)
		s.timers.After(s.cfg.CompleteDelay, func() {
			if s.cfg.OnComplete != nil {
				s.cfg.OnComplete()
			}
		})
		return
	}
	s.timers.After(s.cfg.Tick, s.tick)
}

func (s *Simulator) join() {
	p := s.cfg.Roster[s.cfg.Rand.IntN(len(s.cfg.Roster))]
	e := Entry{Participant: p, JoinedAt: s.sched.Now()}
	s.feed.Push(e)
	if s.cfg.OnJoin != nil {
		s.cfg.OnJoin(e)
	}
	s.timers.After(s.cfg.JoinEvery, s.join)
}
