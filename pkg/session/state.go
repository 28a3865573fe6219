package session

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
)

// State is the session lifecycle state.
type State int

// Session states.
const (
	Anonymous State = iota
	LoggingIn
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case LoggingIn:
		return "logging_in"
	case Active:
		return "active"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotActive is returned by operations that need a valid session.
	ErrNotActive = errors.New("no active session")

	// ErrPingRejected is returned when the service reports the session dead.
	ErrPingRejected = errors.New("ping rejected by identity service")

	// ErrNoNamespace is returned by user data calls without a namespace.
	ErrNoNamespace = errors.New("namespace is required")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeUsername lowercases u and strips everything but a-z and 0-9.
func NormalizeUsername(u string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(u), "")
}

// Outcome is the pending result of one login. It resolves exactly once.
type Outcome struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newOutcome() *Outcome {
	return &Outcome{done: make(chan struct{})}
}

func (o *Outcome) resolve(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done is closed once the login has finished.
func (o *Outcome) Done() <-chan struct{} { return o.done }

// Err waits for the login to finish and returns its error, a
// *protocol.LoginError, or nil on success.
func (o *Outcome) Err() error {
	<-o.done
	return o.err
}

// Wait is like Err but gives up when ctx is done. Giving up does not cancel
// the login.
func (o *Outcome) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
