package draw

import (
	"math"
	"time"

	"github.com/matzehuels/spotlight/pkg/ring"
)

// Timings holds the choreography durations.
type Timings struct {
	Announce  time.Duration `json:"announce" toml:"announce"`
	Spin      time.Duration `json:"spin" toml:"spin"`
	Settle    time.Duration `json:"settle" toml:"settle"`
	Reveal    time.Duration `json:"reveal" toml:"reveal"`
	NotEnough time.Duration `json:"not_enough" toml:"not_enough"`

	// EliminationWindow is the fraction of the spin in which all losers are
	// eliminated.
	EliminationWindow float64 `json:"elimination_window" toml:"elimination_window"`
}

// DefaultTimings returns the standard ceremony pacing.
func DefaultTimings() Timings {
	return Timings{
		Announce:          2000 * time.Millisecond,
		Spin:              10000 * time.Millisecond,
		Settle:            300 * time.Millisecond,
		Reveal:            2000 * time.Millisecond,
		NotEnough:         2000 * time.Millisecond,
		EliminationWindow: 0.8,
	}
}

// Scale returns t with every duration multiplied by f. Non-positive or
// non-finite factors leave t unchanged.
func (t Timings) Scale(f float64) Timings {
	if f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) || f == 1 {
		return t
	}
	scale := func(d time.Duration) time.Duration { return time.Duration(float64(d) * f) }
	t.Announce = scale(t.Announce)
	t.Spin = scale(t.Spin)
	t.Settle = scale(t.Settle)
	t.Reveal = scale(t.Reveal)
	t.NotEnough = scale(t.NotEnough)
	return t
}

// Total returns the time from Start to the announcement.
func (t Timings) Total() time.Duration {
	return t.Announce + t.Spin + t.Settle + t.Reveal
}

func (t Timings) withDefaults() Timings {
	d := DefaultTimings()
	if t.Announce < 0 {
		t.Announce = d.Announce
	}
	if t.Spin <= 0 {
		t.Spin = d.Spin
	}
	if t.Settle < 0 {
		t.Settle = d.Settle
	}
	if t.Reveal < 0 {
		t.Reveal = d.Reveal
	}
	if t.NotEnough < 0 {
		t.NotEnough = d.NotEnough
	}
	if t.EliminationWindow <= 0 || t.EliminationWindow > 1 || math.IsNaN(t.EliminationWindow) {
		t.EliminationWindow = d.EliminationWindow
	}
	return t
}

// EaseOutQuart maps a linear fraction in [0,1] to 1-(1-x)^4.
func EaseOutQuart(x float64) float64 {
	x = min(max(x, 0), 1)
	return 1 - math.Pow(1-x, 4)
}

// SpinPath returns the spotlight stops for a draw whose winner sits at
// ownerIndex. It makes 3·len(positions)+ownerIndex steps, so the path has
// one more stop than that and ends on the winner's slot at spin.
func SpinPath(positions []ring.Position, ownerIndex int, spin time.Duration) []Step {
	count := len(positions)
	if count == 0 || ownerIndex < 0 || ownerIndex >= count {
		return nil
	}
	total := 3*count + ownerIndex
	path := make([]Step, total+1)
	for i := range path {
		slot := i % count
		path[i] = Step{
			Index:    i,
			Slot:     slot,
			Position: positions[slot],
			At:       time.Duration(EaseOutQuart(float64(i)/float64(total)) * float64(spin)),
		}
	}
	return path
}

// EliminationTimes returns the offsets from spin start at which each of n
// losers is eliminated: loser i at (i/n)·window·spin.
func EliminationTimes(n int, spin time.Duration, window float64) []time.Duration {
	if n <= 0 {
		return nil
	}
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = time.Duration(float64(i) / float64(n) * window * float64(spin))
	}
	return out
}
