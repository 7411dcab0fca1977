// Package clock provides the timer abstraction that drives draw ceremonies.
//
// A [Scheduler] runs callbacks after a delay. Two implementations exist:
//   - [Manual]: a virtual clock advanced explicitly, for deterministic tests
//   - [Loop]: a real-time executor that runs every callback on one goroutine
//
// Both guarantee that callbacks never run concurrently with each other, so
// code driven by a Scheduler can keep plain, unsynchronised state.
package clock

import "time"

// Scheduler schedules callbacks on a single logical thread.
type Scheduler interface {
	// Now returns the time elapsed since the scheduler was created.
	Now() time.Duration

	// After runs fn once d has elapsed. A non-positive d schedules fn for the
	// current instant; it still runs after the caller returns.
	After(d time.Duration, fn func()) Timer
}

// Timer is a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call prevented fn
	// from running.
	Stop() bool
}

// Group tracks timers so they can be cancelled as a unit.
// It is not safe for concurrent use; keep it on the scheduler's goroutine.
type Group struct {
	s      Scheduler
	timers []Timer
	closed bool
}

// NewGroup returns a Group scheduling on s.
func NewGroup(s Scheduler) *Group {
	return &Group{s: s}
}

// After schedules fn on the underlying scheduler and remembers the timer.
// After returns nil once the group has been cancelled.
func (g *Group) After(d time.Duration, fn func()) Timer {
	if g.closed {
		return nil
	}
	t := g.s.After(d, func() {
		if g.closed {
			return
		}
		fn()
	})
	g.timers = append(g.timers, t)
	return t
}

// Cancel stops every timer scheduled through the group and rejects new ones.
// It returns how many callbacks were prevented from running.
func (g *Group) Cancel() int {
	g.closed = true
	stopped := 0
	for _, t := range g.timers {
		if t.Stop() {
			stopped++
		}
	}
	g.timers = nil
	return stopped
}

// Cancelled reports whether Cancel has been called.
func (g *Group) Cancelled() bool { return g.closed }
