package clock

import (
	"container/heap"
	"time"
)

// Manual is a virtual-time Scheduler. Time only moves when Advance is called,
// which makes timed sequences reproducible in tests.
//
// Callbacks due at the same instant run in the order they were scheduled.
// Manual is not safe for concurrent use.
type Manual struct {
	now   time.Duration
	seq   uint64
	queue timerHeap
}

// NewManual returns a Manual clock at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Duration { return m.now }

// After schedules fn at Now()+d.
func (m *Manual) After(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	t := &manualTimer{at: m.now + d, seq: m.seq, fn: fn, owner: m}
	m.seq++
	heap.Push(&m.queue, t)
	return t
}

// Advance moves the clock forward by d, running every callback that becomes
// due, including callbacks scheduled by callbacks within the window.
// It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now + d
	ran := 0
	for m.queue.Len() > 0 && m.queue[0].at <= target {
		t := heap.Pop(&m.queue).(*manualTimer)
		t.done = true
		m.now = t.at
		t.fn()
		ran++
	}
	m.now = target
	return ran
}

// RunAll advances until no callbacks are pending and returns how many ran.
// It stops after limit callbacks to guard against self-rescheduling loops.
func (m *Manual) RunAll(limit int) int {
	ran := 0
	for m.queue.Len() > 0 && ran < limit {
		ran += m.Advance(m.queue[0].at - m.now)
	}
	return ran
}

// Pending returns the number of scheduled callbacks.
func (m *Manual) Pending() int { return m.queue.Len() }

// Next returns the delay until the next callback, or false if none is pending.
func (m *Manual) Next() (time.Duration, bool) {
	if m.queue.Len() == 0 {
		return 0, false
	}
	return m.queue[0].at - m.now, true
}

type manualTimer struct {
	at    time.Duration
	seq   uint64
	fn    func()
	index int
	done  bool
	owner *Manual
}

func (t *manualTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	heap.Remove(&t.owner.queue, t.index)
	return true
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*manualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
