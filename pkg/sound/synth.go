// Package sound synthesises the short cues played during a draw ceremony.
//
// Cues are built from beep streamers: an oscillator shaped by an attack /
// exponential-decay envelope, scaled with effects.Volume and mixed at note
// offsets. Output can be encoded to WAV or played on the default speaker.
package sound

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// SampleRate is the rate all cues are rendered at.
const SampleRate = beep.SampleRate(44100)

// Cue names a ceremony sound.
type Cue string

// Ceremony cues.
const (
	CueSelection   Cue = "selection"
	CueElimination Cue = "elimination"
	CueWin         Cue = "win"
	CueProgress    Cue = "progress"
)

// Cues lists every cue in a stable order.
var Cues = []Cue{CueSelection, CueElimination, CueWin, CueProgress}

// Valid reports whether c is a known cue.
func (c Cue) Valid() bool {
	switch c {
	case CueSelection, CueElimination, CueWin, CueProgress:
		return true
	}
	return false
}

// WaveType selects an oscillator shape.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveTriangle
	WaveSquare
	WaveSaw
)

// note is a tone starting at a fixed offset within a cue.
type note struct {
	offset time.Duration
	freq   float64
	length time.Duration
	wave   WaveType
	volume float64
}

// notes returns the score for a cue. rng only affects the win sparkle.
func notes(c Cue, rng *rand.Rand) []note {
	var out []note
	switch c {
	case CueSelection:
		for i, f := range []float64{220, 277, 330, 392, 440, 523} {
			out = append(out, note{time.Duration(i) * 80 * time.Millisecond, f, 150 * time.Millisecond, WaveTriangle, 0.04})
		}
	case CueElimination:
		for i, f := range []float64{440, 392, 330, 277, 220} {
			out = append(out, note{time.Duration(i) * 60 * time.Millisecond, f, 100 * time.Millisecond, WaveSaw, 0.02})
		}
	case CueProgress:
		out = append(out, note{0, 800, 50 * time.Millisecond, WaveSquare, 0.015})
	case CueWin:
		chords := []struct {
			freqs  []float64
			length time.Duration
		}{
			{[]float64{523.25, 659.25, 783.99}, 400 * time.Millisecond},
			{[]float64{587.33, 739.99, 880.00}, 400 * time.Millisecond},
			{[]float64{659.25, 830.61, 987.77}, 600 * time.Millisecond},
			{[]float64{523.25, 659.25, 783.99, 1046.5}, time.Second},
		}
		var last time.Duration
		for i, ch := range chords {
			at := time.Duration(i) * 300 * time.Millisecond
			for _, f := range ch.freqs {
				out = append(out, note{at, f, ch.length, WaveTriangle, 0.08})
			}
			last = at + ch.length
		}
		for i := range 8 {
			f := 1046.5 + rng.Float64()*500
			out = append(out, note{last + time.Duration(i)*50*time.Millisecond, f, 200 * time.Millisecond, WaveSine, 0.03})
		}
	}
	return out
}

// Duration returns the total length of a cue.
func Duration(c Cue) time.Duration {
	var end time.Duration
	for _, n := range notes(c, rand.New(rand.NewPCG(0, 0))) {
		end = max(end, n.offset+n.length)
	}
	return end
}

// Synthesize builds a streamer for the cue. seed fixes the sparkle pitches of
// the win cue; other cues are deterministic.
func Synthesize(c Cue, seed uint64) beep.Streamer {
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	ns := notes(c, rng)

	parts := make([]beep.Streamer, 0, len(ns))
	var end time.Duration
	for _, n := range ns {
		tone := newVolume(NewEnvelope(NewOscillator(n.freq, n.length, n.wave, SampleRate), n.length, 10*time.Millisecond, SampleRate), n.volume)
		parts = append(parts, beep.Seq(beep.Silence(SampleRate.N(n.offset)), tone))
		end = max(end, n.offset+n.length)
	}
	return beep.Take(SampleRate.N(end), beep.Mix(parts...))
}

// oscillator generates raw audio waves
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a new oscillator for wave generation
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope ramps up linearly over the attack and then decays exponentially
// to -60dB by the end of the note.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	total    int
}

// NewEnvelope wraps s with an attack / exponential decay envelope.
func NewEnvelope(s beep.Streamer, duration, attack time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	decay := e.total - e.attack
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attack && e.attack > 0 {
			vol = float64(e.position) / float64(e.attack)
		} else if decay > 0 {
			t := float64(e.position-e.attack) / float64(decay)
			vol = math.Pow(0.001, t)
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales s linearly by vol using a base-2 effects.Volume.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
