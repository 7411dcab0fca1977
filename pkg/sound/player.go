package sound

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/speaker"

	"github.com/matzehuels/spotlight/pkg/errors"
)

// Player plays cues. Play must not block.
type Player interface {
	Play(c Cue)
}

// Nop is a Player that discards every cue.
type Nop struct{}

// Play does nothing.
func (Nop) Play(Cue) {}

// Recorder is a Player that remembers the cues it was asked to play.
type Recorder struct {
	mu   sync.Mutex
	cues []Cue
}

// Play records c.
func (r *Recorder) Play(c Cue) {
	r.mu.Lock()
	r.cues = append(r.cues, c)
	r.mu.Unlock()
}

// Cues returns the recorded cues in play order.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

// Speaker plays cues on the default audio device.
type Speaker struct {
	seed atomic.Uint64
}

var (
	speakerOnce sync.Once
	speakerErr  error
)

// NewSpeaker initialises the audio device. The device is shared by every
// Speaker in the process and initialised once.
func NewSpeaker() (*Speaker, error) {
	speakerOnce.Do(func() {
		if err := speaker.Init(SampleRate, SampleRate.N(50*time.Millisecond)); err != nil {
			speakerErr = errors.Wrap(errors.ErrCodeUnsupported, err, "init audio device")
		}
	})
	if speakerErr != nil {
		return nil, speakerErr
	}
	return &Speaker{}, nil
}

// Play starts the cue and returns immediately.
func (s *Speaker) Play(c Cue) {
	if !c.Valid() {
		return
	}
	speaker.Play(Synthesize(c, s.seed.Add(1)))
}
