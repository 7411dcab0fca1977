package clock

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualOrdering(t *testing.T) {
	m := NewManual()
	var got []string

	m.After(300*time.Millisecond, func() { got = append(got, "c") })
	m.After(100*time.Millisecond, func() { got = append(got, "a") })
	m.After(100*time.Millisecond, func() { got = append(got, "b") })

	if ran := m.Advance(99 * time.Millisecond); ran != 0 {
		t.Fatalf("Advance(99ms) ran %d callbacks, want 0", ran)
	}
	m.Advance(time.Second)

	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if m.Now() != 1099*time.Millisecond {
		t.Errorf("Now() = %v, want 1.099s", m.Now())
	}
}

func TestManualNestedScheduling(t *testing.T) {
	m := NewManual()
	var at []time.Duration

	m.After(time.Second, func() {
		at = append(at, m.Now())
		m.After(500*time.Millisecond, func() { at = append(at, m.Now()) })
	})

	m.Advance(2 * time.Second)
	want := []time.Duration{time.Second, 1500 * time.Millisecond}
	if !slices.Equal(at, want) {
		t.Errorf("callback times = %v, want %v", at, want)
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	fired := false
	timer := m.After(time.Second, func() { fired = true })
	other := m.After(2*time.Second, func() {})

	if !timer.Stop() {
		t.Error("Stop() on pending timer = false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}
	if m.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", m.Pending())
	}

	m.Advance(3 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if other.Stop() {
		t.Error("Stop() after firing = true, want false")
	}
}

func TestManualRunAll(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		m.After(time.Second, tick)
	}
	m.After(0, tick)

	if ran := m.RunAll(10); ran != 10 {
		t.Errorf("RunAll(10) = %d, want 10", ran)
	}
	if count != 10 {
		t.Errorf("count = %d, want 10", count)
	}
}

func TestGroupCancel(t *testing.T) {
	m := NewManual()
	g := NewGroup(m)
	fired := 0
	for i := range 5 {
		g.After(time.Duration(i)*time.Second, func() { fired++ })
	}

	m.Advance(1500 * time.Millisecond)
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}

	if stopped := g.Cancel(); stopped != 3 {
		t.Errorf("Cancel() = %d, want 3", stopped)
	}
	if g.After(0, func() { fired++ }) != nil {
		t.Error("After() on cancelled group returned a timer")
	}

	m.Advance(time.Minute)
	if fired != 2 {
		t.Errorf("fired after cancel = %d, want 2", fired)
	}
	if !g.Cancelled() {
		t.Error("Cancelled() = false")
	}
}

func TestLoopRunsOnSingleGoroutine(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)
	defer l.Close()

	var inFlight, overlaps atomic.Int32
	done := make(chan struct{})
	var remaining atomic.Int32
	remaining.Store(20)

	for range 20 {
		l.After(time.Millisecond, func() {
			if inFlight.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(100 * time.Microsecond)
			inFlight.Add(-1)
			if remaining.Add(-1) == 0 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timers did not fire")
	}
	if overlaps.Load() != 0 {
		t.Errorf("%d callbacks overlapped", overlaps.Load())
	}
}

func TestLoopCallAndStop(t *testing.T) {
	l := NewLoop()
	go l.Run(context.Background())

	var fired atomic.Bool
	var timer Timer
	if err := l.Call(func() {
		timer = l.After(50*time.Millisecond, func() { fired.Store(true) })
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	var stopped bool
	if err := l.Call(func() { stopped = timer.Stop() }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !stopped {
		t.Error("Stop() = false, want true")
	}

	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Error("stopped timer fired")
	}

	l.Close()
	<-l.Done()
	if err := l.Call(func() {}); err != ErrClosed {
		t.Errorf("Call() after Close = %v, want ErrClosed", err)
	}
}

func TestLoopRunsTimersInScheduledOrder(t *testing.T) {
	tests := []struct {
		name string
		n    int
		span time.Duration
	}{
		{"dense", 3000, 400 * time.Millisecond},
		{"scaled", 500, 800 * time.Millisecond},
		{"same instant", 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoop()
			go l.Run(context.Background())
			defer l.Close()

			var got []int
			done := make(chan struct{})
			err := l.Call(func() {
				for i := range tt.n {
					at := time.Duration(float64(i) / float64(tt.n) * float64(tt.span))
					l.After(at, func() {
						got = append(got, i)
						if len(got) == tt.n {
							close(done)
						}
					})
				}
			})
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}

			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatal("timers did not fire")
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("callback %d ran at position %d", v, i)
				}
			}
		})
	}
}

func TestLoopStopRemovesPendingTimer(t *testing.T) {
	l := NewLoop()
	go l.Run(context.Background())
	defer l.Close()

	var order []string
	done := make(chan struct{})
	if err := l.Call(func() {
		l.After(10*time.Millisecond, func() { order = append(order, "a") })
		b := l.After(20*time.Millisecond, func() { order = append(order, "b") })
		l.After(30*time.Millisecond, func() {
			order = append(order, "c")
			close(done)
		})
		if !b.Stop() {
			t.Error("Stop() = false, want true")
		}
		if b.Stop() {
			t.Error("second Stop() = true, want false")
		}
	}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timers did not fire")
	}
	var got []string
	if err := l.Call(func() { got = append(got, order...) }); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("order = %v, want [a c]", got)
	}
}
