// Package debounce delays work until input has been quiet for a window.
package debounce

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultDelay is the quiet window applied to search input
const DefaultDelay = 300 * time.Millisecond

// ErrSuperseded is returned by Wait when a newer call replaced it
var ErrSuperseded = errors.New("superseded by newer input")

// Debouncer lets only the last of a burst of calls proceed. Each Wait
// cancels the one still pending before it.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	seq     uint64
	pending chan struct{}
}

func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Wait blocks for the quiet window. It returns nil when no newer Wait
// arrived in the meantime, ErrSuperseded when one did, or ctx's error.
func (d *Debouncer) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.seq++
	mine := d.seq
	if d.pending != nil {
		close(d.pending)
	}
	cancelled := make(chan struct{})
	d.pending = cancelled
	d.mu.Unlock()

	timer := time.NewTimer(d.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.seq != mine {
			return ErrSuperseded
		}
		d.pending = nil
		return nil
	case <-cancelled:
		return ErrSuperseded
	case <-ctx.Done():
		d.mu.Lock()
		if d.seq == mine {
			d.pending = nil
		}
		d.mu.Unlock()
		return ctx.Err()
	}
}

// Cancel supersedes any pending Wait
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.pending != nil {
		close(d.pending)
		d.pending = nil
	}
}
