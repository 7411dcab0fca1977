package sound

import (
	"bytes"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/matzehuels/spotlight/pkg/errors"
)

// Format is the PCM format cues are encoded with.
var Format = beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}

// EncodeWAV writes s as a 16-bit stereo WAV file.
func EncodeWAV(w io.WriteSeeker, s beep.Streamer) error {
	if err := wav.Encode(w, s, Format); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode wav")
	}
	return nil
}

// RenderWAV synthesises the cue and returns it as WAV bytes.
func RenderWAV(c Cue, seed uint64) ([]byte, error) {
	if !c.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown cue %q", c)
	}
	var buf seekBuffer
	if err := EncodeWAV(&buf, Synthesize(c, seed)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// seekBuffer is an in-memory io.WriteSeeker; wav.Encode rewrites the header
// sizes after streaming.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "negative seek position")
	}
	b.pos = int(next)
	return next, nil
}

func (b *seekBuffer) Bytes() []byte { return bytes.Clone(b.data) }
