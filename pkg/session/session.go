package session

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/fzdarsky/tipi/internal/client"
	"github.com/fzdarsky/tipi/internal/logging"
	"github.com/fzdarsky/tipi/internal/periodic"
	"github.com/fzdarsky/tipi/pkg/config"
	"github.com/fzdarsky/tipi/pkg/otp"
	"github.com/fzdarsky/tipi/pkg/protocol"
	"github.com/fzdarsky/tipi/pkg/srp"
	"github.com/fzdarsky/tipi/pkg/store"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	svc    IdentityService
	store  store.Store
	logger Logger
	now    func() time.Time
	rand   io.Reader
}

// WithIdentityService replaces the HTTP client built from the configuration.
func WithIdentityService(svc IdentityService) Option {
	return func(o *options) { o.svc = svc }
}

// WithStore replaces the record store built from the configuration.
func WithStore(st store.Store) Option {
	return func(o *options) { o.store = st }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock used for heartbeats and codes.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRand sets the entropy source for SRP ephemerals.
func WithRand(r io.Reader) Option {
	return func(o *options) { o.rand = r }
}

// Session is one user's authenticated session. All methods are safe for
// concurrent use.
type Session struct {
	group        *srp.Group
	namespace    string
	timeout      time.Duration
	pingInterval time.Duration
	syncInterval time.Duration

	svc   IdentityService
	store store.Store
	log   Logger
	now   func() time.Time
	rand  io.Reader

	bgCtx    context.Context
	bgCancel context.CancelFunc

	mu          sync.Mutex
	state       State
	identity    string
	sessID      string
	key         []byte
	heartbeat   time.Time
	gen         *otp.Generator
	pinger      *periodic.Runner
	epoch       uint64
	attempts    int
	pending     *Outcome
	cancelLogin context.CancelFunc
	closed      bool
}

// New creates a Session from cfg and restores a persisted session that has
// not yet expired.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, protocol.NewConfigError("configuration is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, protocol.NewConfigError("invalid configuration", err)
	}
	group, err := cfg.Group()
	if err != nil {
		return nil, protocol.NewConfigError("invalid strength", err)
	}
	timeout, _ := cfg.GetTimeout()
	pingInterval, _ := cfg.GetPingInterval()
	syncInterval, _ := cfg.GetTimeSyncInterval()
	httpTimeout, _ := cfg.GetHTTPTimeout()

	o := options{now: time.Now, rand: crand.Reader}
	for _, opt := range opts {
		opt(&o)
	}

	if o.svc == nil {
		c, err := client.New(cfg.BaseURL, client.WithTimeout(httpTimeout))
		if err != nil {
			return nil, protocol.NewConfigError("invalid base URL", err)
		}
		o.svc = c
	}
	if o.store == nil {
		if cfg.Store.Path == "" {
			o.store = store.NewMemoryStore()
		} else {
			fs, err := store.NewFileStore(cfg.Store.Path)
			if err != nil {
				return nil, protocol.NewConfigError("invalid store path", err)
			}
			o.store = fs
		}
	}
	if o.logger == nil {
		level, _ := logging.ParseLevel(cfg.Logging.Level)
		format, _ := logging.ParseFormat(cfg.Logging.Format)
		o.logger = logging.New(level, format).With(map[string]any{"component": "session"})
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	s := &Session{
		group:        group,
		namespace:    cfg.Namespace,
		timeout:      timeout,
		pingInterval: pingInterval,
		syncInterval: syncInterval,
		svc:          o.svc,
		store:        o.store,
		log:          o.logger,
		now:          o.now,
		rand:         o.rand,
		bgCtx:        bgCtx,
		bgCancel:     bgCancel,
	}
	s.restore()
	return s, nil
}

// restore loads the persisted record. An expired or unreadable record is
// cleared, keeping only the identity.
func (s *Session) restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Load()
	if err != nil {
		s.log.Warn("discarding unreadable session record", map[string]any{"error": err.Error()})
		if err := s.store.Clear(); err != nil {
			s.log.Warn("failed to clear session record", map[string]any{"error": err.Error()})
		}
		return
	}
	if rec == nil {
		return
	}
	s.identity = rec.Identity
	if !rec.Active() {
		return
	}

	key, err := hex.DecodeString(rec.Key)
	heartbeat := time.Unix(rec.Heartbeat, 0)
	if err != nil || len(key) == 0 || !heartbeat.Add(s.timeout).After(s.now()) {
		s.log.Info("stored session expired", map[string]any{"identity": s.identity})
		if err := s.store.Save(rec.Cleared()); err != nil {
			s.log.Warn("failed to persist session record", map[string]any{"error": err.Error()})
		}
		return
	}

	s.key = key
	s.sessID = rec.SessID
	s.heartbeat = heartbeat
	s.state = Active
	s.startTimersLocked(true)
	s.log.Info("session restored", map[string]any{"identity": s.identity})
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Identity returns the normalized username of the current or last login.
func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SessionID returns the server-assigned session id, or "" without a session.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessID
}

// Attempts returns how many SRP exchanges the last finished login ran.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// IsValid reports whether the session is usable. An expired session is
// destroyed, unless a login is in progress.
func (s *Session) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkValidLocked()
}

func (s *Session) validLocked() bool {
	return s.sessID != "" && s.key != nil && s.heartbeat.Add(s.timeout).After(s.now())
}

func (s *Session) checkValidLocked() bool {
	if s.validLocked() {
		return true
	}
	if s.state != LoggingIn && (s.sessID != "" || s.key != nil) {
		s.destroyLocked()
	}
	return false
}

// Ping asks the service whether the session is alive. Success refreshes the
// heartbeat; a rejection or any failure destroys the session. A ping during
// a login is skipped.
func (s *Session) Ping(ctx context.Context) error {
	s.mu.Lock()
	if s.state == LoggingIn {
		s.mu.Unlock()
		return nil
	}
	if !s.checkValidLocked() {
		s.mu.Unlock()
		return ErrNotActive
	}
	token := s.tokenLocked()
	epoch := s.epoch
	s.mu.Unlock()

	ok, err := s.svc.Ping(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return nil
	}
	if err != nil || !ok {
		if err == nil {
			err = ErrPingRejected
		}
		s.log.Info("ping failed, destroying session", map[string]any{"identity": s.identity, "error": err.Error()})
		s.destroyLocked()
		return err
	}

	s.heartbeat = s.now()
	s.persistLocked()
	return nil
}

// Logout destroys the session and tells the service. The local session is
// gone even if notifying the service fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	var token string
	if s.validLocked() {
		token = s.tokenLocked()
	}
	s.destroyLocked()
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	return s.svc.Logout(ctx, token)
}

// Destroy drops all session material, cancels a login in progress and
// stores a record that keeps only the identity. It is idempotent.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyLocked()
}

// Close stops background work and cancels a login in progress. The
// persisted record is left as is so a later process can restore it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.epoch++
	s.cancelPendingLocked()
	s.stopTimersLocked()
	s.wipeLocked()
	s.state = Anonymous
	s.bgCancel()
}

func (s *Session) destroyLocked() {
	s.epoch++
	s.cancelPendingLocked()
	s.stopTimersLocked()
	s.wipeLocked()
	s.state = Anonymous
	s.persistLocked()
}

func (s *Session) cancelPendingLocked() {
	if s.cancelLogin != nil {
		s.cancelLogin()
		s.cancelLogin = nil
	}
	if s.pending != nil {
		s.pending.resolve(protocol.NewCancelledError(nil))
		s.pending = nil
	}
}

func (s *Session) wipeLocked() {
	clear(s.key)
	s.key = nil
	s.sessID = ""
	s.heartbeat = time.Time{}
}

func (s *Session) persistLocked() {
	rec := &store.Record{Identity: s.identity}
	if s.key != nil && s.sessID != "" {
		rec.Key = hex.EncodeToString(s.key)
		rec.SessID = s.sessID
		rec.Heartbeat = s.heartbeat.Unix()
	}
	if err := s.store.Save(rec); err != nil {
		s.log.Warn("failed to persist session record", map[string]any{"error": err.Error()})
	}
}

// startTimersLocked arms the code generator's clock sync and the ping. A
// restored session pings at once so a session the service dropped while
// the process was away is noticed without waiting a full interval.
func (s *Session) startTimersLocked(pingNow bool) {
	s.gen = otp.New(s.key,
		otp.WithClock(s.now),
		otp.WithTimeSource(s.svc),
		otp.WithSyncInterval(s.syncInterval),
		otp.WithErrorHandler(func(err error) {
			s.log.Warn("clock sync failed", map[string]any{"error": err.Error()})
		}),
	)
	if err := s.gen.StartSync(s.bgCtx); err != nil {
		s.log.Warn("clock sync not started", map[string]any{"error": err.Error()})
	}

	epoch := s.epoch
	pinger, err := periodic.New(s.pingInterval, func(ctx context.Context) {
		s.mu.Lock()
		stale := epoch != s.epoch
		s.mu.Unlock()
		if stale {
			return
		}
		if err := s.Ping(ctx); err != nil {
			s.log.Debug("ping", map[string]any{"error": err.Error()})
		}
	})
	if err != nil {
		s.log.Error("ping timer not started", map[string]any{"error": err.Error()})
		return
	}
	s.pinger = pinger
	s.pinger.Start(s.bgCtx, pingNow)
}

func (s *Session) stopTimersLocked() {
	if s.pinger != nil {
		s.pinger.Stop()
		s.pinger = nil
	}
	if s.gen != nil {
		s.gen.Close()
		s.gen = nil
	}
}
