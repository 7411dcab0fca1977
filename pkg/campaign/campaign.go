// Package campaign tracks the sign-up phase that precedes a draw: the
// completion percentage and a feed of recently joined participants.
//
// A [Simulator] drives both on a [clock.Scheduler] for demos and kiosk
// displays, and fires OnComplete shortly after the campaign fills up.
package campaign

import (
	"math"
	"strconv"
	"time"

	"github.com/matzehuels/spotlight/pkg/draw"
)

// Progress is a completion percentage in [0,100].
type Progress float64

// NewProgress clamps p to [0,100]. NaN maps to zero.
func NewProgress(p float64) Progress {
	if math.IsNaN(p) {
		return 0
	}
	return Progress(min(max(p, 0), 100))
}

// Add returns the progress advanced by delta, clamped.
func (p Progress) Add(delta float64) Progress {
	return NewProgress(float64(p) + delta)
}

// Complete reports whether the campaign is full.
func (p Progress) Complete() bool { return p >= 100 }

// Format renders the percentage with two decimals, e.g. "42.50".
func (p Progress) Format() string {
	return strconv.FormatFloat(float64(NewProgress(float64(p))), 'f', 2, 64)
}

func (p Progress) String() string { return p.Format() + "%" }

// DefaultFeedSize is the number of entries a Feed keeps.
const DefaultFeedSize = 8

// Entry is one feed line.
type Entry struct {
	Participant draw.Participant `json:"participant"`
	JoinedAt    time.Duration    `json:"joined_at"`
}

// Feed keeps the most recent sign-ups, newest first.
type Feed struct {
	size    int
	entries []Entry
}

// NewFeed returns a Feed holding at most size entries (DefaultFeedSize if
// size is not positive).
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &Feed{size: size}
}

// Push adds e at the front, dropping the oldest entry when full.
func (f *Feed) Push(e Entry) {
	f.entries = append([]Entry{e}, f.entries...)
	if len(f.entries) > f.size {
		f.entries = f.entries[:f.size]
	}
}

// Entries returns a copy of the feed, newest first.
func (f *Feed) Entries() []Entry {
	return append([]Entry(nil), f.entries...)
}

// Len returns the number of entries.
func (f *Feed) Len() int { return len(f.entries) }

// Reset empties the feed.
func (f *Feed) Reset() { f.entries = nil }

// DemoRoster is the participant list used when no data source is configured.
var DemoRoster = []draw.Participant{
	{ID: "1", Name: "Aseel Ashraf"},
	{ID: "2", Name: "Project Gemini"},
	{ID: "3", Name: "React Pro"},
	{ID: "4", Name: "UI/UX Mastery"},
	{ID: "5", Name: "Framer Motion"},
	{ID: "6", Name: "Tailwind CSS"},
	{ID: "7", Name: "Code Polisher"},
	{ID: "8", Name: "Design First"},
	{ID: "9", Name: "Elegant UI"},
	{ID: "10", Name: "Clean Code"},
	{ID: "11", Name: "Next Level"},
	{ID: "12", Name: "Final Version"},
	{ID: "13", Name: "Adaptive UI"},
	{ID: "14", Name: "More Life"},
	{ID: "15", Name: "John Doe"},
	{ID: "16", Name: "Jane Smith"},
	{ID: "17", Name: "Peter Jones"},
	{ID: "18", Name: "Mary Williams"},
	{ID: "19", Name: "Chris Brown"},
	{ID: "20", Name: "Patricia Miller"},
	{ID: "21", Name: "Robert Davis"},
	{ID: "22", Name: "Linda Garcia"},
	{ID: "23", Name: "James Wilson"},
	{ID: "24", Name: "Susan Martinez"},
}
