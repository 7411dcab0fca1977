package draw

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/spotlight/pkg/clock"
	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/observability"
	"github.com/matzehuels/spotlight/pkg/ring"
	"github.com/matzehuels/spotlight/pkg/sound"
)

func participants(n int) []Participant {
	names := []string{"ada", "bob", "cy", "dee", "eve", "fox", "gus", "hal", "ivy", "jo"}
	out := make([]Participant, n)
	for i := range out {
		name := names[i%len(names)]
		out[i] = Participant{ID: "p" + string(rune('0'+i%10)) + string(rune('a'+i/10)), Name: name}
	}
	return out
}

type recorder struct {
	events []Event
}

func (r *recorder) handle(e Event) { r.events = append(r.events, e) }

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func newDraw(t *testing.T, m *clock.Manual, n int, opts ...Option) (*Sequencer, *recorder) {
	t.Helper()
	rec := &recorder{}
	ps := participants(n)
	pos := ring.Compute(n, 800, 600)
	s, err := New(m, ps, pos, append([]Option{WithHandler(rec.handle)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, rec
}

func TestFiveParticipantScenario(t *testing.T) {
	m := clock.NewManual()
	ps := participants(5)
	closes := 0
	s, rec := newDraw(t, m, 5, WithWinner(ps[2].ID), WithCloseFunc(func() { closes++ }))

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	m.Advance(time.Hour)

	want := []EventKind{
		EventStatusTextChanged,
		EventParticipantEliminated, EventParticipantEliminated,
		EventParticipantEliminated, EventParticipantEliminated,
		EventWinnerChosen,
		EventStatusTextChanged,
		EventAnnouncementReady,
	}
	if got := rec.kinds(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	var eliminated []string
	for _, e := range rec.events {
		if e.Kind == EventParticipantEliminated {
			eliminated = append(eliminated, e.ParticipantID)
		}
	}
	wantElim := []string{ps[0].ID, ps[1].ID, ps[3].ID, ps[4].ID}
	if !slices.Equal(eliminated, wantElim) {
		t.Errorf("eliminated = %v, want %v", eliminated, wantElim)
	}

	chosen := rec.events[5]
	if chosen.ParticipantID != ps[2].ID {
		t.Errorf("winner = %q, want %q", chosen.ParticipantID, ps[2].ID)
	}
	if rec.events[6].Status != WinnerStatus(ps[2].Name) {
		t.Errorf("status = %q, want %q", rec.events[6].Status, WinnerStatus(ps[2].Name))
	}

	if closes != 0 {
		t.Fatal("closed before dismissal")
	}
	if st := s.Snapshot(); st.Phase != PhaseRevealing || !st.Announced {
		t.Errorf("phase = %v announced = %v, want revealing/true", st.Phase, st.Announced)
	}

	if err := s.Dismiss(); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if err := s.Dismiss(); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("second Dismiss() = %v, want INVALID_STATE", err)
	}
	if closes != 1 {
		t.Errorf("close callback ran %d times, want 1", closes)
	}
	if last := rec.events[len(rec.events)-1]; last.Kind != EventClosed {
		t.Errorf("last event = %v, want closed", last.Kind)
	}
	if s.Snapshot().Phase != PhaseClosed {
		t.Errorf("phase = %v, want closed", s.Snapshot().Phase)
	}
}

func TestEventTiming(t *testing.T) {
	m := clock.NewManual()
	ps := participants(5)
	s, rec := newDraw(t, m, 5, WithWinner(ps[2].ID))
	s.Start()
	m.Advance(time.Hour)

	wantAt := []time.Duration{
		0,
		2000 * time.Millisecond, 4000 * time.Millisecond, 6000 * time.Millisecond, 8000 * time.Millisecond,
		12300 * time.Millisecond,
		12300 * time.Millisecond,
		14300 * time.Millisecond,
	}
	for i, e := range rec.events {
		if e.At != wantAt[i] {
			t.Errorf("event %d (%s) at %v, want %v", i, e.Kind, e.At, wantAt[i])
		}
	}
}

func TestSeededWinnerIsReproducible(t *testing.T) {
	winner := func(seed uint64) string {
		m := clock.NewManual()
		s, _ := newDraw(t, m, 7, WithSeed(seed))
		s.Start()
		m.Advance(time.Minute)
		return s.Snapshot().WinnerID
	}
	a, b := winner(42), winner(42)
	if a == "" || a != b {
		t.Errorf("winner(42) = %q then %q, want equal and non-empty", a, b)
	}
}

func TestWinnerDistribution(t *testing.T) {
	const n, draws = 4, 2000
	counts := map[string]int{}
	for seed := range uint64(draws) {
		m := clock.NewManual()
		s, _ := newDraw(t, m, n, WithSeed(seed))
		s.Start()
		m.Advance(time.Minute)
		counts[s.Snapshot().WinnerID]++
	}
	if len(counts) != n {
		t.Fatalf("winners = %v, want all %d participants", counts, n)
	}
	for id, c := range counts {
		if c < draws/n/2 {
			t.Errorf("participant %s won %d of %d draws", id, c, draws)
		}
	}
}

func TestNotEnoughParticipants(t *testing.T) {
	m := clock.NewManual()
	closes := 0
	s, rec := newDraw(t, m, 0, WithCloseFunc(func() { closes++ }))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if s.Snapshot().Phase != PhaseNotEnoughParticipants {
		t.Errorf("phase = %v, want not_enough_participants", s.Snapshot().Phase)
	}
	m.Advance(1999 * time.Millisecond)
	if closes != 0 {
		t.Fatal("closed before 2000ms")
	}
	m.Advance(time.Millisecond)

	want := []EventKind{EventStatusTextChanged, EventClosed}
	if got := rec.kinds(); !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if rec.events[0].Status != StatusNotEnough {
		t.Errorf("status = %q, want %q", rec.events[0].Status, StatusNotEnough)
	}
	if rec.events[1].At != 2000*time.Millisecond {
		t.Errorf("closed at %v, want 2s", rec.events[1].At)
	}
	if closes != 1 {
		t.Errorf("close callback ran %d times, want 1", closes)
	}
	if err := s.Dismiss(); err == nil {
		t.Error("Dismiss() on closed draw succeeded")
	}
}

func TestEmptyLayoutIsNotEnough(t *testing.T) {
	m := clock.NewManual()
	rec := &recorder{}
	s, err := New(m, participants(3), nil, WithHandler(rec.handle))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Start()
	m.Advance(time.Minute)
	if got := rec.kinds(); !slices.Equal(got, []EventKind{EventStatusTextChanged, EventClosed}) {
		t.Errorf("events = %v", got)
	}
}

func TestStopMidSpin(t *testing.T) {
	for _, at := range []time.Duration{0, time.Second, 2500 * time.Millisecond, 7 * time.Second, 12100 * time.Millisecond, 13 * time.Second} {
		t.Run(at.String(), func(t *testing.T) {
			m := clock.NewManual()
			closes := 0
			s, rec := newDraw(t, m, 6, WithSeed(1), WithSpotlightEvents(), WithCloseFunc(func() { closes++ }))
			s.Start()
			m.Advance(at)

			before := len(rec.events)
			s.Stop()
			if m.Pending() != 0 {
				t.Errorf("Pending() after Stop = %d, want 0", m.Pending())
			}
			m.Advance(time.Hour)

			if len(rec.events) != before {
				t.Errorf("%d events after teardown", len(rec.events)-before)
			}
			if closes != 0 {
				t.Error("teardown invoked the close callback")
			}
			if err := s.Dismiss(); err == nil {
				t.Error("Dismiss() after Stop succeeded")
			}
			if !s.Snapshot().Stopped {
				t.Error("Snapshot().Stopped = false")
			}
		})
	}
}

func TestEliminationInvariants(t *testing.T) {
	m := clock.NewManual()
	s, rec := newDraw(t, m, 24, WithSeed(9))
	s.Start()

	prev := 0
	for range 200 {
		m.Advance(100 * time.Millisecond)
		st := s.Snapshot()
		if len(st.Eliminated) < prev {
			t.Fatalf("eliminated shrank from %d to %d", prev, len(st.Eliminated))
		}
		prev = len(st.Eliminated)
		if s.winner >= 0 && st.IsEliminated(s.participants[s.winner].ID) {
			t.Fatalf("winner %s eliminated", s.participants[s.winner].ID)
		}
		if st.WinnerID != "" && st.Anchor == nil {
			t.Fatal("winner exposed before reveal")
		}
	}
	if prev != 23 {
		t.Errorf("eliminated %d, want 23", prev)
	}

	chosen := slices.IndexFunc(rec.events, func(e Event) bool { return e.Kind == EventWinnerChosen })
	lastElim := -1
	for i, e := range rec.events {
		if e.Kind == EventParticipantEliminated {
			lastElim = i
		}
	}
	if chosen < 0 || chosen < lastElim {
		t.Errorf("winner_chosen at %d, last elimination at %d", chosen, lastElim)
	}
	if n := len(slices.DeleteFunc(rec.kinds(), func(k EventKind) bool { return k != EventWinnerChosen })); n != 1 {
		t.Errorf("winner_chosen fired %d times, want 1", n)
	}
}

func TestSpotlightFollowsPath(t *testing.T) {
	m := clock.NewManual()
	ps := participants(4)
	s, rec := newDraw(t, m, 4, WithWinner(ps[3].ID), WithSpotlightEvents())
	s.Start()
	m.Advance(time.Hour)

	var slots []int
	for _, e := range rec.events {
		if e.Kind == EventSpotlightMoved {
			slots = append(slots, e.Step.Slot)
		}
	}
	if len(slots) != 3*4+3+1 {
		t.Fatalf("spotlight moved %d times, want 16", len(slots))
	}
	for i, slot := range slots {
		if slot != i%4 {
			t.Errorf("step %d slot = %d, want %d", i, slot, i%4)
		}
	}
	if s.Snapshot().Spotlight != 3 {
		t.Errorf("final spotlight = %d, want 3", s.Snapshot().Spotlight)
	}
}

func TestWinnerAnchor(t *testing.T) {
	m := clock.NewManual()
	ps := participants(3)
	s, rec := newDraw(t, m, 3, WithWinner(ps[1].ID))
	s.Start()
	m.Advance(time.Hour)

	pos := ring.Compute(3, 800, 600)[1]
	idx := slices.IndexFunc(rec.events, func(e Event) bool { return e.Kind == EventWinnerChosen })
	e := rec.events[idx]
	if *e.Position != pos {
		t.Errorf("position = %v, want %v", *e.Position, pos)
	}
	want := ring.Position{X: pos.X + 55, Y: pos.Y + 55}
	if *e.Anchor != want {
		t.Errorf("anchor = %v, want %v", *e.Anchor, want)
	}
}

func TestSoundCues(t *testing.T) {
	m := clock.NewManual()
	var rec sound.Recorder
	s, _ := newDraw(t, m, 3, WithSeed(3), WithSound(&rec))
	s.Start()
	m.Advance(time.Hour)

	want := []sound.Cue{sound.CueSelection, sound.CueElimination, sound.CueWin}
	if got := rec.Cues(); !slices.Equal(got, want) {
		t.Errorf("cues = %v, want %v", got, want)
	}
}

func TestTimeScale(t *testing.T) {
	m := clock.NewManual()
	s, rec := newDraw(t, m, 2, WithSeed(5), WithTimeScale(0.1))
	s.Start()
	m.Advance(1430 * time.Millisecond)
	if k := rec.kinds(); k[len(k)-1] != EventAnnouncementReady {
		t.Errorf("last event = %v, want announcement_ready", k[len(k)-1])
	}
	if got := s.Timings().Spin; got != time.Second {
		t.Errorf("Timings().Spin = %v, want 1s", got)
	}
}

func TestNewValidation(t *testing.T) {
	m := clock.NewManual()
	pos := ring.Compute(2, 800, 600)
	tests := []struct {
		name string
		ps   []Participant
		pos  []ring.Position
		opts []Option
	}{
		{"misaligned", participants(3), pos, nil},
		{"duplicate", []Participant{{ID: "a"}, {ID: "a"}}, pos, nil},
		{"empty id", []Participant{{ID: ""}, {ID: "b"}}, pos, nil},
		{"unknown winner", participants(2), pos, []Option{WithWinner("nobody")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(m, tt.ps, tt.pos, tt.opts...)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("New() error = %v, want INVALID_INPUT", err)
			}
		})
	}
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("New(nil scheduler) error = nil")
	}
}

func TestStartTwice(t *testing.T) {
	m := clock.NewManual()
	s, _ := newDraw(t, m, 2)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("second Start() = %v, want INVALID_STATE", err)
	}
}

func TestDismissBeforeAnnouncement(t *testing.T) {
	m := clock.NewManual()
	s, _ := newDraw(t, m, 3)
	s.Start()
	m.Advance(5 * time.Second)
	if err := s.Dismiss(); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("Dismiss() mid-spin = %v, want INVALID_STATE", err)
	}
}

func TestPhaseText(t *testing.T) {
	for p := PhaseIdle; p <= PhaseNotEnoughParticipants; p++ {
		text, _ := p.MarshalText()
		var got Phase
		if err := got.UnmarshalText(text); err != nil || got != p {
			t.Errorf("round trip of %s = %v, %v", p, got, err)
		}
	}
	var p Phase
	if err := p.UnmarshalText([]byte("dancing")); err == nil {
		t.Error("UnmarshalText(dancing) succeeded")
	}
}

type hookRecorder struct {
	started    int
	eliminated int
	winner     string
	outcomes   []string
}

func (h *hookRecorder) OnDrawStart(context.Context, string, int)   { h.started++ }
func (h *hookRecorder) OnEliminated(context.Context, string, string) { h.eliminated++ }
func (h *hookRecorder) OnWinner(_ context.Context, _ string, id string, _ time.Duration) {
	h.winner = id
}
func (h *hookRecorder) OnDrawClosed(_ context.Context, _ string, outcome string, _ time.Duration) {
	h.outcomes = append(h.outcomes, outcome)
}

func TestDrawHooks(t *testing.T) {
	h := &hookRecorder{}
	observability.SetDrawHooks(h)
	defer observability.Reset()

	m := clock.NewManual()
	ps := participants(4)
	s, _ := newDraw(t, m, 4, WithID("d1"), WithWinner(ps[1].ID))
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	m.Advance(time.Hour)
	if err := s.Dismiss(); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	s.Stop()

	if h.started != 1 || h.eliminated != 3 || h.winner != ps[1].ID {
		t.Errorf("hooks = %+v", h)
	}
	if !slices.Equal(h.outcomes, []string{OutcomeWinner}) {
		t.Errorf("outcomes = %v, want [%s]", h.outcomes, OutcomeWinner)
	}
}

func TestDrawHooksAborted(t *testing.T) {
	h := &hookRecorder{}
	observability.SetDrawHooks(h)
	defer observability.Reset()

	m := clock.NewManual()
	s, _ := newDraw(t, m, 3)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	m.Advance(time.Second)
	s.Stop()

	if !slices.Equal(h.outcomes, []string{OutcomeAborted}) {
		t.Errorf("outcomes = %v, want [%s]", h.outcomes, OutcomeAborted)
	}
}
