// Package search throttles free-text search input so every keystroke does
// not become a list refetch.
package search

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the debounce window applied to search inputs.
const DefaultInterval = 300 * time.Millisecond

// Debouncer coalesces rapid triggers into one run after a quiet interval.
// A newer trigger cancels the context of the pending or in-flight run, so a
// superseded fetch is discarded through structured cancellation rather than
// a manually checked flag.
type Debouncer struct {
	interval time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDebouncer returns a debouncer with the given quiet interval; zero or
// negative falls back to DefaultInterval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{interval: interval}
}

// Trigger schedules fn to run once the interval has passed without another
// trigger. The previous run's context is cancelled immediately.
func (d *Debouncer) Trigger(parent context.Context, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.supersedeLocked()

	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	done := make(chan struct{})
	d.done = done
	d.timer = time.AfterFunc(d.interval, func() {
		defer close(done)
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	})
}

// supersedeLocked retires the pending run. If the timer is stopped before
// firing, the wrapped fn never closes done, so it is released here.
func (d *Debouncer) supersedeLocked() {
	if d.timer != nil && d.timer.Stop() {
		close(d.done)
	}
	if d.cancel != nil {
		d.cancel()
	}
}

// Stop cancels any pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supersedeLocked()
	d.timer = nil
	d.cancel = nil
}

// Wait blocks until the most recently scheduled run has finished or been
// retired. A run superseded mid-flight keeps draining on its own; only the
// latest one is waited on.
func (d *Debouncer) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}
