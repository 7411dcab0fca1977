package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/spotlight/pkg/draw"
)

type roster struct {
	Participants []draw.Participant `json:"participants"`
}

// WriteJSON encodes participants as a roster object.
// The output can be re-imported with [ReadJSON].
func WriteJSON(ps []draw.Participant, w io.Writer) error {
	if ps == nil {
		ps = []draw.Participant{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(roster{Participants: ps}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLines writes participants in the "id<TAB>name" text format.
func WriteLines(ps []draw.Participant, w io.Writer) error {
	for _, p := range ps {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", p.ID, p.Name); err != nil {
			return err
		}
	}
	return nil
}

// ExportJSON writes participants to a JSON file at path.
func ExportJSON(ps []draw.Participant, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(ps, f)
}
