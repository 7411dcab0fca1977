package draw

import (
	"encoding/json"
	"time"

	"github.com/matzehuels/spotlight/pkg/errors"
	"github.com/matzehuels/spotlight/pkg/ring"
)

// Status texts shown during a draw.
const (
	StatusSelecting = "Selecting the owner..."
	StatusNotEnough = "Not enough participants to start."
)

// WinnerStatus returns the status text announcing the winner.
func WinnerStatus(name string) string {
	return "🎉 The new owner is " + name + "! 🎉"
}

// Outcomes reported when a draw ends.
const (
	OutcomeWinner       = "winner"
	OutcomeInsufficient = "insufficient_participants"
	OutcomeAborted      = "aborted"
)

// Participant is one entrant of a draw. IDs are unique within a draw.
type Participant struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Phase is the position of a draw in its choreography.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAnnouncing
	PhaseSpinning
	PhaseSettling
	PhaseRevealing
	PhaseClosed
	PhaseNotEnoughParticipants
)

var phaseNames = [...]string{
	PhaseIdle:                  "idle",
	PhaseAnnouncing:            "announcing",
	PhaseSpinning:              "spinning",
	PhaseSettling:              "settling",
	PhaseRevealing:             "revealing",
	PhaseClosed:                "closed",
	PhaseNotEnoughParticipants: "not_enough_participants",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown phase %q", b)
}

// Terminal reports whether no further transition follows p without a
// dismissal.
func (p Phase) Terminal() bool {
	return p == PhaseClosed || p == PhaseNotEnoughParticipants
}

// EventKind identifies an [Event].
type EventKind string

const (
	EventStatusTextChanged     EventKind = "status_text_changed"
	EventParticipantEliminated EventKind = "participant_eliminated"
	EventSpotlightMoved        EventKind = "spotlight_moved"
	EventWinnerChosen          EventKind = "winner_chosen"
	EventAnnouncementReady     EventKind = "announcement_ready"
	EventClosed                EventKind = "closed"
)

// Event is emitted by a Sequencer. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind `json:"kind"`

	// At is the time since Start.
	At time.Duration `json:"-"`

	Status        string         `json:"status,omitempty"`
	ParticipantID string         `json:"participant_id,omitempty"`
	Position      *ring.Position `json:"position,omitempty"`
	Anchor        *ring.Position `json:"anchor,omitempty"`
	Step          *Step          `json:"step,omitempty"`
}

// MarshalJSON adds the event time in milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	return json.Marshal(struct {
		plain
		AtMS int64 `json:"at_ms"`
	}{plain(e), e.At.Milliseconds()})
}

// Step is one spotlight stop on the spin path.
type Step struct {
	Index    int           `json:"index" bson:"index"`
	Slot     int           `json:"slot" bson:"slot"`
	Position ring.Position `json:"position" bson:"position"`
	At       time.Duration `json:"at" bson:"at"`
}

// State is a snapshot of a draw.
type State struct {
	Phase      Phase    `json:"phase"`
	Status     string   `json:"status"`
	WinnerID   string   `json:"winner_id,omitempty"`
	Eliminated []string `json:"eliminated"`

	// Spotlight is the slot currently lit, or -1.
	Spotlight int `json:"spotlight"`

	// Anchor is the centre of the winner's card, set once revealed.
	Anchor *ring.Position `json:"anchor,omitempty"`

	Announced bool `json:"announced"`
	Closed    bool `json:"closed"`
	Stopped   bool `json:"stopped"`

	Path []Step `json:"-"`
}

// IsEliminated reports whether id has been eliminated.
func (s State) IsEliminated(id string) bool {
	for _, e := range s.Eliminated {
		if e == id {
			return true
		}
	}
	return false
}
