// Package fieldsync coalesces rapid per-field edits into timed commits and
// discards stale in-flight responses using a monotonic request sequence.
package fieldsync

import (
	"sync"
	"time"
)

// DefaultCommitDelay is the default debounce window for field commits.
const DefaultCommitDelay = 450 * time.Millisecond

// Debouncer coalesces rapid events into a single callback invocation.
// When Trigger is called multiple times within the debounce duration,
// only the last callback is executed after the duration elapses. Flush
// runs a pending callback immediately instead of waiting.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	seq      uint64
	pending  func()
}

// NewDebouncer creates a new Debouncer with the specified duration.
// If duration is 0, DefaultCommitDelay is used.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration == 0 {
		duration = DefaultCommitDelay
	}
	return &Debouncer{
		duration: duration,
	}
}

// Trigger schedules the callback to be called after the debounce duration.
// If Trigger is called again before the duration elapses, the previous
// scheduled callback is cancelled and a new one is scheduled.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq
	d.pending = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		shouldRun := func() bool {
			d.mu.Lock()
			defer d.mu.Unlock()

			// Only run the most recently scheduled callback. This avoids races
			// where Stop() returns false because the timer has already fired
			// and the old callback starts running concurrently.
			if seq != d.seq {
				return false
			}
			d.timer = nil
			d.pending = nil
			return true
		}()
		if !shouldRun {
			return
		}

		callback()
	})
}

// Flush runs any pending callback immediately, synchronously, instead of
// letting the timer fire later. Used at teardown so buffered work is never
// silently dropped. Safe to call with nothing pending.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	cb := d.pending
	d.seq++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Cancel cancels any pending callback.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Invalidate any callback that might already be executing due to timer races.
	d.seq++
	d.pending = nil

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
