package atlas

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the throttle needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Throttle coalesces calls to Schedule into one run of fn at the end of the
// window. Flush runs fn immediately and drops any pending run.
type Throttle struct {
	window    time.Duration
	fn        func()
	afterFunc AfterFunc

	mu      sync.Mutex
	pending Timer
	gen     int
	stopped bool
}

func NewThrottle(window time.Duration, fn func(), after AfterFunc) *Throttle {
	if after == nil {
		after = realAfterFunc
	}
	return &Throttle{window: window, fn: fn, afterFunc: after}
}

// Schedule arms the timer unless a run is already pending. It reports whether
// a new run was armed.
func (t *Throttle) Schedule() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil || t.stopped {
		return false
	}
	t.gen++
	gen := t.gen
	t.pending = t.afterFunc(t.window, func() { t.fire(gen) })
	return true
}

func (t *Throttle) fire(gen int) {
	t.mu.Lock()
	if gen != t.gen || t.pending == nil {
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.mu.Unlock()
	t.fn()
}

// Pending reports whether a run is armed.
func (t *Throttle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *Throttle) cancel() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

// Flush cancels a pending run and calls fn now.
func (t *Throttle) Flush() {
	t.mu.Lock()
	t.cancel()
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		t.fn()
	}
}

// Stop cancels a pending run and disables further scheduling.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel()
	t.stopped = true
}
