// Package periodic runs a callback on a fixed interval in the background.
package periodic

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Runner calls a function every interval until its context is cancelled or
// Stop is called.
type Runner struct {
	interval time.Duration
	fn       func(ctx context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New creates a runner. The interval must be positive.
func New(interval time.Duration, fn func(ctx context.Context)) (*Runner, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	if fn == nil {
		return nil, fmt.Errorf("callback is required")
	}
	return &Runner{interval: interval, fn: fn}, nil
}

// Start launches the background loop. When immediate is true the callback
// runs once right away. Starting a running runner is a no-op.
func (r *Runner) Start(ctx context.Context, immediate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.loop(ctx, immediate, r.done)
}

func (r *Runner) loop(ctx context.Context, immediate bool, done chan struct{}) {
	defer close(done)

	if immediate {
		r.fn(ctx)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.done == done {
				r.running = false
			}
			r.mu.Unlock()
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			r.fn(ctx)
		}
	}
}

// Stop disarms the runner. It does not wait for an in-flight callback, so it
// is safe to call from inside one. Stop is idempotent.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.running = false
}

// Running reports whether the loop is armed.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Done returns a channel closed when the current loop has exited. It is
// nil if the runner was never started.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}
