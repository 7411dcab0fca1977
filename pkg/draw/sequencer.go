package draw

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/matzehuels/spotlight/pkg/clock"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/observability"
	"github.com/matzehuels/spotlight/pkg/ring"
	"github.com/matzehuels/spotlight/pkg/sound"
)

// Handler receives sequencer events on the scheduler's goroutine.
// It must not block.
type Handler func(Event)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithRand sets the random source used to draw the winner.
func WithRand(r *rand.Rand) Option {
	return func(s *Sequencer) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithSeed draws the winner from a PCG source seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

// WithWinner presets the winner instead of drawing one.
func WithWinner(id string) Option {
	return func(s *Sequencer) { s.preset = id }
}

// WithTimings replaces the choreography durations.
func WithTimings(t Timings) Option {
	return func(s *Sequencer) { s.timings = t }
}

// WithTimeScale multiplies every duration by f.
func WithTimeScale(f float64) Option {
	return func(s *Sequencer) { s.scale = f }
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(s *Sequencer) { s.handler = h }
}

// WithCloseFunc sets the callback invoked once when the draw closes.
// Teardown through Stop does not invoke it.
func WithCloseFunc(fn func()) Option {
	return func(s *Sequencer) { s.onClose = fn }
}

// WithSound plays ceremony cues on p.
func WithSound(p sound.Player) Option {
	return func(s *Sequencer) {
		if p != nil {
			s.player = p
		}
	}
}

// WithSpotlightEvents emits an EventSpotlightMoved for every path step.
func WithSpotlightEvents() Option {
	return func(s *Sequencer) { s.spotlightEvents = true }
}

// WithID names the draw in observability hooks, which fire for start,
// every elimination, the reveal and the end of the draw.
func WithID(id string) Option {
	return func(s *Sequencer) { s.id = id }
}

// WithContext sets the context passed to observability hooks.
func WithContext(ctx context.Context) Option {
	return func(s *Sequencer) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithCardSize sets the card footprint used to compute the winner anchor.
func WithCardSize(width, height float64) Option {
	return func(s *Sequencer) {
		if width > 0 && height > 0 {
			s.cardW, s.cardH = width, height
		}
	}
}

// Sequencer runs one draw.
type Sequencer struct {
	id     string
	ctx    context.Context
	sched  clock.Scheduler
	timers *clock.Group

	participants []Participant
	positions    []ring.Position

	rng             *rand.Rand
	preset          string
	timings         Timings
	scale           float64
	handler         Handler
	onClose         func()
	player          sound.Player
	spotlightEvents bool
	cardW, cardH    float64

	phase      Phase
	status     string
	winner     int
	eliminated []string
	path       []Step
	spotlight  int
	anchor     *ring.Position
	announced  bool
	closed     bool
	stopped    bool
	startedAt  time.Duration
	spinAt     time.Duration
}

// New creates a draw over participants laid out at positions, which must be
// empty or aligned with participants. Participant IDs must be unique.
func New(sched clock.Scheduler, participants []Participant, positions []ring.Position, opts ...Option) (*Sequencer, error) {
	if sched == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scheduler is required")
	}
	if len(positions) != 0 && len(positions) != len(participants) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%d positions for %d participants", len(positions), len(participants))
	}
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if err := errors.ValidateParticipantID(p.ID); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate participant id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	s := &Sequencer{
		ctx:          context.Background(),
		sched:        sched,
		timers:       clock.NewGroup(sched),
		participants: append([]Participant(nil), participants...),
		positions:    append([]ring.Position(nil), positions...),
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		timings:      DefaultTimings(),
		scale:        1,
		player:       sound.Nop{},
		cardW:        ring.DefaultCardWidth,
		cardH:        ring.DefaultCardHeight,
		winner:       -1,
		spotlight:    -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timings = s.timings.withDefaults().Scale(s.scale)

	if s.preset != "" {
		if _, ok := seen[s.preset]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "winner %q is not a participant", s.preset)
		}
	}
	return s, nil
}

// Start begins the ceremony. It fails if the draw was already started.
func (s *Sequencer) Start() error {
	if s.phase != PhaseIdle || s.stopped {
		return errors.New(errors.ErrCodeInvalidState, "draw already started (phase %s)", s.phase)
	}
	s.startedAt = s.sched.Now()
	observability.Draw().OnDrawStart(s.ctx, s.id, len(s.participants))

	if len(s.participants) == 0 || len(s.positions) == 0 {
		s.phase = PhaseNotEnoughParticipants
		s.setStatus(StatusNotEnough)
		s.timers.After(s.timings.NotEnough, s.close)
		return nil
	}

	s.phase = PhaseAnnouncing
	s.setStatus(StatusSelecting)
	s.timers.After(s.timings.Announce, s.spin)
	return nil
}

// Dismiss closes a draw whose announcement is showing.
func (s *Sequencer) Dismiss() error {
	if s.stopped || s.closed || !s.announced {
		return errors.New(errors.ErrCodeInvalidState, "nothing to dismiss (phase %s)", s.phase)
	}
	s.close()
	return nil
}

// Stop tears the draw down: every pending transition is cancelled and no
// event is emitted afterwards. Stop is idempotent.
func (s *Sequencer) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.timers.Cancel()
	if s.phase != PhaseIdle && !s.closed {
		observability.Draw().OnDrawClosed(s.ctx, s.id, OutcomeAborted, s.elapsed())
	}
}

// Snapshot returns the current state. The winner is withheld until the
// reveal.
func (s *Sequencer) Snapshot() State {
	st := State{
		Phase:      s.phase,
		Status:     s.status,
		Eliminated: append([]string{}, s.eliminated...),
		Spotlight:  s.spotlight,
		Announced:  s.announced,
		Closed:     s.closed,
		Stopped:    s.stopped,
		Path:       s.path,
	}
	if s.anchor != nil {
		st.WinnerID = s.participants[s.winner].ID
		a := *s.anchor
		st.Anchor = &a
	}
	return st
}

// Participants returns the entrants in input order.
func (s *Sequencer) Participants() []Participant { return s.participants }

// Positions returns the layout the draw runs on.
func (s *Sequencer) Positions() []ring.Position { return s.positions }

// Timings returns the effective durations after scaling.
func (s *Sequencer) Timings() Timings { return s.timings }

func (s *Sequencer) spin() {
	s.phase = PhaseSpinning
	s.winner = s.pickWinner()
	s.path = SpinPath(s.positions, s.winner, s.timings.Spin)
	s.spinAt = s.sched.Now()
	s.player.Play(sound.CueSelection)

	s.advance(0)

	losers := make([]string, 0, len(s.participants)-1)
	for i, p := range s.participants {
		if i != s.winner {
			losers = append(losers, p.ID)
		}
	}
	for i, at := range EliminationTimes(len(losers), s.timings.Spin, s.timings.EliminationWindow) {
		id := losers[i]
		s.timers.After(at, func() { s.eliminate(id) })
	}
	s.timers.After(s.timings.Spin, s.settle)
}

// advance lights path step i and schedules the next one relative to the
// spin start, so scheduler latency does not accumulate.
func (s *Sequencer) advance(i int) {
	step := s.path[i]
	s.spotlight = step.Slot
	if s.spotlightEvents {
		st := step
		s.emit(Event{Kind: EventSpotlightMoved, Step: &st})
	}
	if i+1 < len(s.path) {
		next := s.path[i+1].At - (s.sched.Now() - s.spinAt)
		s.timers.After(next, func() { s.advance(i + 1) })
	}
}

func (s *Sequencer) pickWinner() int {
	if s.preset != "" {
		for i, p := range s.participants {
			if p.ID == s.preset {
				return i
			}
		}
	}
	return s.rng.IntN(len(s.participants))
}

func (s *Sequencer) eliminate(id string) {
	if len(s.eliminated) == 0 {
		s.player.Play(sound.CueElimination)
	}
	s.eliminated = append(s.eliminated, id)
	observability.Draw().OnEliminated(s.ctx, s.id, id)
	s.emit(Event{Kind: EventParticipantEliminated, ParticipantID: id})
}

func (s *Sequencer) settle() {
	s.phase = PhaseSettling
	s.spotlight = s.winner
	s.timers.After(s.timings.Settle, s.reveal)
}

func (s *Sequencer) reveal() {
	s.phase = PhaseRevealing
	w := s.participants[s.winner]
	pos := s.positions[s.winner]
	anchor := ring.Position{X: pos.X + s.cardW/2, Y: pos.Y + s.cardH/2}
	s.anchor = &anchor

	s.player.Play(sound.CueWin)
	observability.Draw().OnWinner(s.ctx, s.id, w.ID, s.elapsed())
	s.emit(Event{Kind: EventWinnerChosen, ParticipantID: w.ID, Position: &pos, Anchor: &anchor})
	s.setStatus(WinnerStatus(w.Name))
	s.timers.After(s.timings.Reveal, s.announce)
}

func (s *Sequencer) announce() {
	s.announced = true
	s.emit(Event{Kind: EventAnnouncementReady, ParticipantID: s.participants[s.winner].ID})
}

func (s *Sequencer) close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.phase != PhaseNotEnoughParticipants {
		s.phase = PhaseClosed
	}
	s.timers.Cancel()
	outcome := OutcomeWinner
	if s.phase == PhaseNotEnoughParticipants {
		outcome = OutcomeInsufficient
	}
	observability.Draw().OnDrawClosed(s.ctx, s.id, outcome, s.elapsed())
	s.emit(Event{Kind: EventClosed})
	if s.onClose != nil {
		s.onClose()
	}
}

func (s *Sequencer) elapsed() time.Duration { return s.sched.Now() - s.startedAt }

func (s *Sequencer) setStatus(text string) {
	s.status = text
	s.emit(Event{Kind: EventStatusTextChanged, Status: text})
}

func (s *Sequencer) emit(e Event) {
	if s.stopped || s.handler == nil {
		return
	}
	e.At = s.sched.Now() - s.startedAt
	s.handler(e)
}
