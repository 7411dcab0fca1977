// Package storage persists finished draws so a ceremony can be audited
// after the fact.
//
// Backends:
//   - [MemoryStore]: process-local, for tests and single-shot servers
//   - [FileStore]: JSON files under a directory, for the CLI
//   - [MongoStore]: a MongoDB collection, for server deployments
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/matzehuels/spotlight/pkg/draw"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("draw record not found")

// Outcome is how a draw ended.
type Outcome string

const (
	OutcomeWinner       Outcome = draw.OutcomeWinner
	OutcomeInsufficient Outcome = draw.OutcomeInsufficient
	OutcomeAborted      Outcome = draw.OutcomeAborted
)

// DrawRecord is the persisted summary of one draw.
type DrawRecord struct {
	ID           string             `json:"id" bson:"_id"`
	ListingID    int                `json:"listing_id,omitempty" bson:"listing_id,omitempty"`
	Participants []draw.Participant `json:"participants" bson:"participants"`
	WinnerID     string             `json:"winner_id,omitempty" bson:"winner_id,omitempty"`
	Eliminated   []string           `json:"eliminated" bson:"eliminated"`
	Seed         Seed               `json:"seed" bson:"seed"`
	Width        float64            `json:"width" bson:"width"`
	Height       float64            `json:"height" bson:"height"`
	StartedAt    time.Time          `json:"started_at" bson:"started_at"`
	ClosedAt     time.Time          `json:"closed_at" bson:"closed_at"`
	Outcome      Outcome            `json:"outcome" bson:"outcome"`
}

// Seed is the winner-selection seed of a draw. BSON has no unsigned 64-bit
// integer, so it is stored there as a decimal string.
type Seed uint64

// MarshalBSONValue implements bson.ValueMarshaler.
func (s Seed) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(strconv.FormatUint(uint64(s), 10))
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler. Integer values written
// by older records are accepted as well.
func (s *Seed) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		v, err := strconv.ParseUint(raw.StringValue(), 10, 64)
		if err != nil {
			return fmt.Errorf("decode seed: %w", err)
		}
		*s = Seed(v)
	case bson.TypeInt64:
		*s = Seed(uint64(raw.Int64()))
	case bson.TypeInt32:
		*s = Seed(uint64(raw.Int32()))
	default:
		return fmt.Errorf("decode seed: unexpected BSON type %s", t)
	}
	return nil
}

// OutcomeOf classifies the state a draw stopped in.
func OutcomeOf(st draw.State) Outcome {
	switch {
	case st.Phase == draw.PhaseNotEnoughParticipants:
		return OutcomeInsufficient
	case st.Closed:
		return OutcomeWinner
	}
	return OutcomeAborted
}

// FinalState reconstructs the state the draw ended in.
func (r *DrawRecord) FinalState() draw.State {
	st := draw.State{
		Phase:      draw.PhaseClosed,
		WinnerID:   r.WinnerID,
		Eliminated: append([]string{}, r.Eliminated...),
		Spotlight:  -1,
	}
	switch r.Outcome {
	case OutcomeInsufficient:
		st.Phase = draw.PhaseNotEnoughParticipants
		st.Status = draw.StatusNotEnough
		st.Closed = true
	case OutcomeAborted:
		st.Stopped = true
	default:
		st.Closed = true
		st.Announced = true
		for _, p := range r.Participants {
			if p.ID == r.WinnerID {
				st.Status = draw.WinnerStatus(p.Name)
			}
		}
	}
	return st
}

// NewID returns a fresh draw identifier.
func NewID() string { return uuid.NewString() }

// ValidID reports whether id has the shape of a draw identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store persists draw records.
type Store interface {
	// Save inserts or replaces a record.
	Save(ctx context.Context, rec *DrawRecord) error

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*DrawRecord, error)

	// List returns up to limit records, most recently started first.
	// A non-positive limit returns all records.
	List(ctx context.Context, limit int) ([]*DrawRecord, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

func validate(rec *DrawRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("draw record requires an id")
	}
	return nil
}
