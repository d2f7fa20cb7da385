package persist

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of values into a single trailing call. Each Push
// replaces the pending value and re-arms one timer; when the timer fires the
// pending value is handed to the callback and cleared.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   Clock
	wait    time.Duration
	fire    func(T)
	timer   Timer
	armed   uint64
	pending T
	has     bool
	stopped bool
}

// NewDebouncer builds a debouncer that calls fire after wait of quiet.
func NewDebouncer[T any](clock Clock, wait time.Duration, fire func(T)) *Debouncer[T] {
	if clock == nil {
		clock = RealClock()
	}
	return &Debouncer[T]{clock: clock, wait: wait, fire: fire}
}

// Push replaces the pending value and restarts the quiet period. It returns
// false once the debouncer has been stopped.
func (d *Debouncer[T]) Push(value T) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.pending = value
	d.has = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed++
	seq := d.armed
	d.timer = d.clock.AfterFunc(d.wait, func() { d.onTimer(seq) })
	return true
}

func (d *Debouncer[T]) onTimer(seq uint64) {
	d.mu.Lock()
	// a stale timer lost the race with Stop/Push/Cancel
	if seq != d.armed || !d.has || d.stopped {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.clearLocked()
	d.mu.Unlock()
	d.fire(value)
}

// Take cancels the timer and returns the pending value, if any.
func (d *Debouncer[T]) Take() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	value, ok := d.pending, d.has
	d.cancelLocked()
	return value, ok
}

// Cancel drops the pending value. It reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	had := d.has
	d.cancelLocked()
	return had
}

// Stop cancels any pending value and rejects future pushes.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether a value is waiting for the timer.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.has
}

func (d *Debouncer[T]) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed++
	d.clearLocked()
}

func (d *Debouncer[T]) clearLocked() {
	var zero T
	d.pending = zero
	d.has = false
	d.timer = nil
}
