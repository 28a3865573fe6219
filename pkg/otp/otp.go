// Package otp derives time-based one-time codes from an SRP session key.
//
// A code is the low 96 bits of HMAC-SHA512(secret, decimal(step)) where
// step counts 30 second windows of the server-corrected clock.
package otp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fzdarsky/tipi/internal/periodic"
)

const (
	// StepMillis is the length of one code window.
	StepMillis = 30_000

	// CodeSize is the code length in bytes (96 bits).
	CodeSize = 12

	// DefaultSyncInterval is how often the clock delta is refreshed.
	DefaultSyncInterval = 30 * time.Minute
)

// ErrNoTimeSource is returned by Sync when no TimeSource was configured.
var ErrNoTimeSource = errors.New("no time source configured")

// Code is one 96-bit one-time code.
type Code [CodeSize]byte

// String returns the standard base64 encoding used on the wire.
func (c Code) String() string { return base64.StdEncoding.EncodeToString(c[:]) }

// Hex returns the lowercase hex encoding.
func (c Code) Hex() string { return hex.EncodeToString(c[:]) }

// Sign returns base64(HMAC-SHA256(key = String(), msg)), the signature
// carried by TIPI-TOKEN headers.
func (c Code) Sign(msg string) string {
	mac := hmac.New(sha256.New, []byte(c.String()))
	mac.Write([]byte(msg))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// TimeSource reports the server's current time in unix milliseconds.
type TimeSource interface {
	Time(ctx context.Context) (int64, error)
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces the local clock.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithTimeSource sets the server clock used by Sync.
func WithTimeSource(ts TimeSource) Option {
	return func(g *Generator) { g.source = ts }
}

// WithSyncInterval overrides DefaultSyncInterval.
func WithSyncInterval(d time.Duration) Option {
	return func(g *Generator) { g.interval = d }
}

// WithErrorHandler receives errors from background syncs.
func WithErrorHandler(fn func(error)) Option {
	return func(g *Generator) { g.onError = fn }
}

// Generator produces codes for one secret. It is safe for concurrent use.
type Generator struct {
	secret   []byte
	now      func() time.Time
	source   TimeSource
	interval time.Duration
	onError  func(error)

	mu       sync.Mutex
	lastStep int64
	lastCode Code
	cached   bool
	delta    int64 // server minus local, in ms

	syncs  singleflight.Group
	runner *periodic.Runner
}

// New creates a generator keyed by secret. The secret is copied.
func New(secret []byte, opts ...Option) *Generator {
	g := &Generator{
		secret:   append([]byte(nil), secret...),
		now:      time.Now,
		interval: DefaultSyncInterval,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MakeCode returns the code for step. Asking again for the most recent
// step returns the cached value.
func (g *Generator) MakeCode(step int64) Code {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cached && g.lastStep == step {
		return g.lastCode
	}

	mac := hmac.New(sha512.New, g.secret)
	mac.Write([]byte(strconv.FormatInt(step, 10)))
	sum := mac.Sum(nil)

	var c Code
	copy(c[:], sum[len(sum)-CodeSize:])
	g.lastStep, g.lastCode, g.cached = step, c, true
	return c
}

// Now returns the corrected clock in unix milliseconds.
func (g *Generator) Now() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().UnixMilli() + g.delta
}

// Step returns the current window number.
func (g *Generator) Step() int64 {
	return floorDiv(g.Now(), StepMillis)
}

// Current returns the code for the current window.
func (g *Generator) Current() Code {
	return g.MakeCode(g.Step())
}

// Delta returns the last measured offset of the server clock.
func (g *Generator) Delta() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	return time.Duration(g.delta) * time.Millisecond
}

// Sync measures the server clock and updates the delta as
// serverTime - (send + rtt/2). Concurrent calls share one request.
func (g *Generator) Sync(ctx context.Context) error {
	if g.source == nil {
		return ErrNoTimeSource
	}
	_, err, _ := g.syncs.Do("sync", func() (any, error) {
		send := g.now().UnixMilli()
		server, err := g.source.Time(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to sync time: %w", err)
		}
		rtt := g.now().UnixMilli() - send

		g.mu.Lock()
		g.delta = server - (send + rtt/2)
		g.mu.Unlock()
		return nil, nil
	})
	return err
}

// StartSync syncs now and then every sync interval until Stop.
func (g *Generator) StartSync(ctx context.Context) error {
	if g.source == nil {
		return ErrNoTimeSource
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.runner == nil {
		r, err := periodic.New(g.interval, func(ctx context.Context) {
			if err := g.Sync(ctx); err != nil && g.onError != nil {
				g.onError(err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to start time sync: %w", err)
		}
		g.runner = r
	}
	g.runner.Start(ctx, true)
	return nil
}

// Stop disarms the resync timer. It is idempotent.
func (g *Generator) Stop() {
	g.mu.Lock()
	r := g.runner
	g.mu.Unlock()
	if r != nil {
		r.Stop()
	}
}

// Close stops the timer and wipes the secret and cached code.
func (g *Generator) Close() {
	g.Stop()
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.secret)
	g.lastCode = Code{}
	g.cached = false
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
