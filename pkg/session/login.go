package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/google/uuid"

	"github.com/fzdarsky/tipi/pkg/bignum"
	"github.com/fzdarsky/tipi/pkg/protocol"
	"github.com/fzdarsky/tipi/pkg/srp"
)

// MaxAttempts bounds the SRP exchanges one login runs for retryable
// verification failures. The clear-password recovery retry is not counted.
const MaxAttempts = 3

// Login runs a login and waits for its outcome. The returned error is a
// *protocol.LoginError.
func (s *Session) Login(ctx context.Context, username, password, namespace string) error {
	return s.LoginAsync(ctx, username, password, namespace).Err()
}

// LoginAsync starts a login and returns its pending outcome. Any session or
// login in progress is dropped first; a superseded login resolves as
// cancelled. An empty namespace falls back to the configured one.
func (s *Session) LoginAsync(ctx context.Context, username, password, namespace string) *Outcome {
	out := newOutcome()

	if namespace == "" {
		namespace = s.namespace
	}
	identity := NormalizeUsername(username)
	switch {
	case namespace == "":
		out.resolve(protocol.NewConfigError("namespace is required", ErrNoNamespace))
		return out
	case identity == "":
		out.resolve(protocol.NewConfigError("username is empty", nil))
		return out
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		out.resolve(protocol.NewUnknownError(ErrClosed))
		return out
	}
	s.destroyLocked()
	s.identity = identity
	s.state = LoggingIn
	epoch := s.epoch
	loginCtx, cancel := context.WithCancel(ctx)
	s.cancelLogin = cancel
	s.pending = out
	s.mu.Unlock()

	go s.runLogin(loginCtx, epoch, identity, password, namespace, out)
	return out
}

func (s *Session) runLogin(ctx context.Context, epoch uint64, identity, password, namespace string, out *Outcome) {
	fields := map[string]any{"identity": identity, "namespace": namespace, "login_id": uuid.NewString()}
	s.log.Debug("login started", fields)

	var clearPassword string
	clearUsed := false
	attempt := 1
	for {
		key, sessID, err := s.exchange(ctx, identity, password, namespace, clearPassword)
		clearPassword = ""
		if err == nil {
			s.complete(epoch, attempt, key, sessID, out)
			return
		}

		if ctx.Err() != nil {
			s.fail(epoch, attempt, out, protocol.NewCancelledError(ctx.Err()))
			return
		}
		if isPartialUser(err) && !clearUsed {
			clearUsed = true
			clearPassword = password
			s.log.Info("identity service requested the clear password", fields)
			continue
		}
		if isRetryable(err) && attempt < MaxAttempts {
			s.log.Debug("login attempt failed, retrying", mergeFields(fields, map[string]any{
				"attempt": attempt,
				"error":   err.Error(),
			}))
			attempt++
			continue
		}

		lerr := classify(err)
		s.log.Warn("login failed", mergeFields(fields, map[string]any{
			"attempt":    attempt,
			"error_code": string(lerr.Code),
			"error":      err.Error(),
		}))
		s.fail(epoch, attempt, out, lerr)
		return
	}
}

// exchange runs both rounds with a fresh SRP client and returns the session
// key and id.
func (s *Session) exchange(ctx context.Context, identity, password, namespace, clearPassword string) ([]byte, string, error) {
	c := srp.NewClient(s.group, identity, password, srp.WithRand(s.rand))
	defer c.Clear()

	A, err := c.ComputeA()
	if err != nil {
		return nil, "", err
	}

	first, err := s.svc.LoginInit(ctx, &protocol.LoginInitRequest{
		Username:  identity,
		Namespace: namespace,
		A:         A.Hex(),
		Clear:     clearPassword,
	})
	if err != nil {
		return nil, "", err
	}
	if err := first.Validate(); err != nil {
		return nil, "", err
	}
	salt, err := parseHex("s", first.Salt)
	if err != nil {
		return nil, "", err
	}
	B, err := parseHex("B", first.B)
	if err != nil {
		return nil, "", err
	}
	if err := c.SetServerPublic(salt, B); err != nil {
		return nil, "", err
	}

	M1, err := c.M1()
	if err != nil {
		return nil, "", err
	}
	second, err := s.svc.LoginVerify(ctx, &protocol.LoginVerifyRequest{M1: srp.DigestHex(M1)})
	if err != nil {
		return nil, "", err
	}
	if err := second.Validate(); err != nil {
		return nil, "", err
	}
	M2, err := parseHex("M2", second.M2)
	if err != nil {
		return nil, "", err
	}
	if err := c.VerifyM2(M2); err != nil {
		return nil, "", err
	}

	key, err := c.SessionKey()
	if err != nil {
		return nil, "", err
	}
	return key, string(second.SessID), nil
}

func (s *Session) complete(epoch uint64, attempts int, key []byte, sessID string, out *Outcome) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		clear(key)
		out.resolve(protocol.NewCancelledError(nil))
		return
	}

	if s.cancelLogin != nil {
		s.cancelLogin()
		s.cancelLogin = nil
	}
	s.pending = nil
	s.attempts = attempts
	s.key = key
	s.sessID = sessID
	s.heartbeat = s.now()
	s.state = Active
	s.persistLocked()
	s.startTimersLocked(false)
	identity := s.identity
	s.mu.Unlock()

	s.log.Info("login succeeded", map[string]any{"identity": identity, "attempts": attempts})
	out.resolve(nil)
}

func (s *Session) fail(epoch uint64, attempts int, out *Outcome, lerr *protocol.LoginError) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		out.resolve(protocol.NewCancelledError(lerr))
		return
	}

	if s.cancelLogin != nil {
		s.cancelLogin()
		s.cancelLogin = nil
	}
	s.pending = nil
	s.attempts = attempts
	s.wipeLocked()
	s.state = Failed
	s.persistLocked()
	s.mu.Unlock()

	out.resolve(lerr)
}

func parseHex(name, value string) (*bignum.Int, error) {
	x, err := bignum.FromHex(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", protocol.ErrMalformedResponse, name, err)
	}
	return x, nil
}

func statusOf(err error) *protocol.StatusError {
	var se *protocol.StatusError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// isRetryable reports a verification failure that a fresh ephemeral may
// get past.
func isRetryable(err error) bool {
	if se := statusOf(err); se != nil {
		return se.StatusCode == http.StatusBadRequest
	}
	return errors.Is(err, srp.ErrVerification)
}

func isPartialUser(err error) bool {
	se := statusOf(err)
	return se != nil && se.StatusCode == http.StatusUnprocessableEntity &&
		se.Body.Kind == protocol.ServerErrPartialUser && se.Body.Clear
}

// classify maps a login failure onto the public error taxonomy.
func classify(err error) *protocol.LoginError {
	var le *protocol.LoginError
	if errors.As(err, &le) {
		return le
	}

	if se := statusOf(err); se != nil {
		switch {
		case se.StatusCode == http.StatusNotFound:
			return protocol.NewPasswordError("Unknown identity", err)
		case se.StatusCode == http.StatusForbidden:
			return protocol.NewPasswordError("Account recovery failed", err)
		case se.StatusCode == http.StatusBadRequest, se.StatusCode == http.StatusUnprocessableEntity:
			return protocol.NewPasswordError("Wrong password", err)
		case se.StatusCode >= http.StatusInternalServerError:
			return protocol.NewNoConnectionError(err)
		default:
			return protocol.NewUnknownError(err)
		}
	}

	switch {
	case errors.Is(err, protocol.ErrNoConnection):
		return protocol.NewNoConnectionError(err)
	case errors.Is(err, protocol.ErrMalformedResponse), errors.Is(err, srp.ErrInvalidPublic):
		return protocol.NewProtocolError("Malformed response from identity service", err)
	case errors.Is(err, srp.ErrVerification):
		return protocol.NewPasswordError("Wrong password", err)
	default:
		return protocol.NewUnknownError(err)
	}
}

func mergeFields(base, extra map[string]any) map[string]any {
	out := maps.Clone(base)
	maps.Copy(out, extra)
	return out
}
