// Package draw implements the selection ceremony that picks one winner from
// the participants arranged by package ring.
//
// # Phases
//
// A [Sequencer] walks through a fixed choreography:
//
//	Idle → Announcing → Spinning → Settling → Revealing → Closed
//
// Announcing is a short dwell showing a generic status. On entering Spinning
// the winner is drawn uniformly at random (or taken from a preset), the
// spotlight starts visiting ring slots along the spin path, and every other
// participant is eliminated on a staggered schedule that finishes within the
// first 80% of the spin. After the spin a brief Settling pause precedes the
// reveal, which emits [EventWinnerChosen] and, after a hold, an
// [EventAnnouncementReady]. The draw then waits for [Sequencer.Dismiss].
//
// A draw with no participants (or no layout) enters the terminal
// [PhaseNotEnoughParticipants] instead and closes itself after a delay.
//
// # Spin path
//
// The path makes three full traversals of the layout plus ownerIndex extra
// steps, so it always ends on the winner's slot. Step i of totalSteps is
// reached at EaseOutQuart(i/totalSteps) of the spin duration, which makes the
// spotlight decelerate into the winner's slot.
//
// # Scheduling
//
// The sequencer never starts goroutines or timers of its own: all
// transitions go through a [clock.Scheduler], and every pending transition
// belongs to one [clock.Group]. Teardown via [Sequencer.Stop] cancels the
// group, after which no event is emitted.
//
// A Sequencer is not safe for concurrent use. Call its methods from the
// scheduler's goroutine (for [clock.Loop], through Do or Call).
package draw
