package clock

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by [Loop.Call] once the loop has stopped.
var ErrClosed = errors.New("loop closed")

// Loop is a real-time Scheduler that executes all callbacks and posted work
// on a single goroutine (the one calling Run). It is the actor that owns a
// live draw: anything touching draw state goes through Do or Call.
//
// Timers live in one deadline heap driven by a single time.Timer, so
// callbacks run in (deadline, scheduling order) just like on Manual.
type Loop struct {
	start time.Time

	mu     sync.Mutex
	queue  []func()
	timers loopHeap
	seq    uint64
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewLoop creates a Loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		start: time.Now(),
		wake:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Now returns the wall time elapsed since the loop was created.
func (l *Loop) Now() time.Duration { return time.Since(l.start) }

// After runs fn on the loop goroutine once d has elapsed. Callbacks due at
// the same instant run in the order they were scheduled.
func (l *Loop) After(d time.Duration, fn func()) Timer {
	t := &loopTimer{owner: l, fn: fn}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		t.done = true
		return t
	}
	t.at = l.Now() + max(d, 0)
	t.seq = l.seq
	l.seq++
	heap.Push(&l.timers, t)
	l.mu.Unlock()

	l.signal()
	return t
}

// Do queues fn to run on the loop goroutine. It never blocks and may be
// called from the loop itself. Work queued after Close is dropped.
func (l *Loop) Do(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Call runs fn on the loop goroutine and waits for it to finish.
// It must not be called from the loop goroutine.
func (l *Loop) Call(fn func()) error {
	finished := make(chan struct{})
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, func() {
		defer close(finished)
		fn()
	})
	l.mu.Unlock()
	l.signal()

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Run processes work until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	defer l.markClosed()

	alarm := time.NewTimer(time.Hour)
	alarm.Stop()
	defer alarm.Stop()

	for {
		for _, fn := range l.drain() {
			if l.isClosed() {
				return
			}
			fn()
		}
		for {
			t := l.popDue()
			if t == nil {
				break
			}
			t.fn()
		}
		if l.isClosed() {
			return
		}
		if d, ok := l.untilNext(); ok {
			alarm.Reset(d)
		} else {
			alarm.Stop()
		}
		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		case <-l.wake:
		case <-alarm.C:
		}
	}
}

// Close stops the loop after the work item currently executing, if any.
// Queued work that has not started is discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.markClosed()
		close(l.quit)
	})
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// popDue removes the earliest timer if it is due.
func (l *Loop) popDue() *loopTimer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.timers.Len() == 0 || l.timers[0].at > l.Now() {
		return nil
	}
	t := heap.Pop(&l.timers).(*loopTimer)
	t.done = true
	return t
}

func (l *Loop) untilNext() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timers.Len() == 0 {
		return 0, false
	}
	return max(l.timers[0].at-l.Now(), 0), true
}

func (l *Loop) drain() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	q := l.queue
	l.queue = nil
	return q
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Loop) markClosed() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	for _, t := range l.timers {
		t.done = true
	}
	l.timers = nil
	l.mu.Unlock()
}

type loopTimer struct {
	at    time.Duration
	seq   uint64
	fn    func()
	index int
	done  bool
	owner *Loop
}

func (t *loopTimer) Stop() bool {
	l := t.owner
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	heap.Remove(&l.timers, t.index)
	return true
}

type loopHeap []*loopTimer

func (h loopHeap) Len() int { return len(h) }

func (h loopHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h loopHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *loopHeap) Push(x any) {
	t := x.(*loopTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *loopHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
