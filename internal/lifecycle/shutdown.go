// Package lifecycle handles process shutdown for the tipi developer tools.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Shutdown cancels a context on SIGTERM, SIGINT or an explicit Trigger.
type Shutdown struct {
	signals chan os.Signal
	trigger chan struct{}

	mu      sync.Mutex
	reason  string
	stopped bool
}

// NewShutdown creates a Shutdown. Call Watch to start listening.
func NewShutdown() *Shutdown {
	return &Shutdown{
		signals: make(chan os.Signal, 1),
		trigger: make(chan struct{}, 1),
	}
}

// Watch returns a context derived from ctx that is cancelled once shutdown
// starts.
func (s *Shutdown) Watch(ctx context.Context) context.Context {
	signal.Notify(s.signals, syscall.SIGTERM, syscall.SIGINT)

	watched, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		select {
		case sig, ok := <-s.signals:
			if ok {
				s.setReason(fmt.Sprintf("received signal: %v", sig))
			}
		case <-s.trigger:
		case <-ctx.Done():
		}
	}()
	return watched
}

// Trigger starts shutdown with reason. Only the first reason is kept.
func (s *Shutdown) Trigger(reason string) {
	if !s.setReason(reason) {
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Shutdown) setReason(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reason != "" {
		return false
	}
	s.reason = reason
	return true
}

// Reason returns why shutdown started, or "" if it has not.
func (s *Shutdown) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Stop stops listening for signals. It is safe to call more than once.
func (s *Shutdown) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	signal.Stop(s.signals)
}

// Graceful runs fn with a deadline of timeout and reports a timeout as an
// error even if fn ignores its context.
func Graceful(ctx context.Context, fn func(context.Context) error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out after %v", timeout)
	}
}
