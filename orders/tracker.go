package orders

import (
	"context"
	"sync"
	"time"

	"github.com/itsneelabh/pizzeria/core"
)

// DefaultRefreshInterval is how often a tracker re-derives progress
const DefaultRefreshInterval = 30 * time.Second

// TrackerOptions configures Track
type TrackerOptions struct {
	Interval time.Duration
	Now      func() time.Time
	Logger   core.Logger

	// Ticks replaces the interval ticker; tests drive the tracker with it.
	Ticks <-chan time.Time
}

// Tracker periodically re-derives the progress of one order and publishes
// each stage advance. It stops by itself once the order is delivered.
type Tracker struct {
	progress *core.Subject[Progress]
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Track starts a tracker for an order placed at orderTime. The progress at
// start is published immediately.
func Track(ctx context.Context, orderTime time.Time, opts TrackerOptions) *Tracker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	logger := core.OrNoOp(opts.Logger)

	initial := Timeline(orderTime, opts.Now())
	// A zero order time is resolved once so later ticks keep the same baseline
	orderTime = initial.OrderTime

	ctx, cancel := context.WithCancel(ctx)
	t := &Tracker{
		progress: core.NewSubject(initial),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	if initial.Delivered() {
		cancel()
		close(t.done)
		return t
	}

	ticks := opts.Ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(opts.Interval)
		ticks = ticker.C
	}

	go func() {
		defer close(t.done)
		defer cancel()
		if ticker != nil {
			defer ticker.Stop()
		}

		current := initial.Index
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				p := Timeline(orderTime, opts.Now())
				if p.Index <= current {
					continue
				}
				current = p.Index
				logger.Debug("Order stage advanced", map[string]interface{}{
					"status": p.Status,
					"index":  p.Index,
				})
				t.progress.Publish(p)
				if p.Delivered() {
					return
				}
			}
		}
	}()
	return t
}

// Current returns the latest published progress
func (t *Tracker) Current() Progress {
	return t.progress.Value()
}

// Subscribe registers fn for stage advances, starting with the current progress.
func (t *Tracker) Subscribe(fn func(Progress)) (unsubscribe func()) {
	return t.progress.Subscribe(fn)
}

// Stop ends tracking and waits for the goroutine to exit
func (t *Tracker) Stop() {
	t.stopOnce.Do(t.cancel)
	<-t.done
}

// Done is closed when the tracker has stopped
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}
