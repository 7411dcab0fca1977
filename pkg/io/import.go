package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/spotlight/pkg/draw"
	"github.com/matzehuels/spotlight/pkg/errors"
)

// ReadJSON decodes a JSON roster from r.
//
// ReadJSON returns an error if the JSON is malformed, a participant has no
// id, or an id appears twice. ReadJSON does not close r.
func ReadJSON(r io.Reader) ([]draw.Participant, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var ps []draw.Participant
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &ps)
	} else {
		var doc roster
		err = json.Unmarshal(trimmed, &doc)
		ps = doc.Participants
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode roster")
	}
	return normalize(ps)
}

// ReadLines decodes a text roster from r.
func ReadLines(r io.Reader) ([]draw.Participant, error) {
	var ps []draw.Participant
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p := draw.Participant{ID: "p" + strconv.Itoa(line), Name: text}
		if id, name, ok := strings.Cut(text, "\t"); ok {
			p = draw.Participant{ID: strings.TrimSpace(id), Name: strings.TrimSpace(name)}
		}
		ps = append(ps, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return normalize(ps)
}

// Import reads the roster at path, picking the format by extension:
// ".json" is JSON, anything else is the text format.
func Import(path string) ([]draw.Participant, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "roster %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ReadJSON(f)
	}
	return ReadLines(f)
}

func normalize(ps []draw.Participant) ([]draw.Participant, error) {
	if err := errors.ValidateCount(len(ps)); err != nil {
		return nil, err
	}
	seen := make(map[string]int, len(ps))
	out := make([]draw.Participant, 0, len(ps))
	for i, p := range ps {
		if err := errors.ValidateParticipantID(p.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "participant %d", i+1)
		}
		if prev, dup := seen[p.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"participant %d repeats id %q of participant %d", i+1, p.ID, prev+1)
		}
		seen[p.ID] = i
		if p.Name == "" {
			p.Name = p.ID
		}
		out = append(out, p)
	}
	return out, nil
}
