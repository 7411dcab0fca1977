package pipeline

import (
	"strconv"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
	spio "github.com/matzehuels/spotlight/pkg/io"
)

// Resolve returns the participants described by opts: the explicit list, the
// roster file, or Count placeholder entrants named by slot number.
func Resolve(opts Options) ([]draw.Participant, error) {
	switch {
	case len(opts.Participants) > 0:
		return opts.Participants, nil
	case opts.RosterPath != "":
		return spio.Import(opts.RosterPath)
	}
	if err := errors.ValidateCount(opts.Count); err != nil {
		return nil, err
	}
	return Placeholders(opts.Count), nil
}

// Placeholders returns n participants with ids "slot-1".."slot-n".
func Placeholders(n int) []draw.Participant {
	ps := make([]draw.Participant, n)
	for i := range ps {
		num := strconv.Itoa(i + 1)
		ps[i] = draw.Participant{ID: "slot-" + num, Name: "#" + num}
	}
	return ps
}
