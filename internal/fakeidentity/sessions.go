package fakeidentity

import (
	"crypto/hmac"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/fzdarsky/tipi/pkg/otp"
	"github.com/fzdarsky/tipi/pkg/protocol"
)

var (
	errSessionNotFound = errors.New("session not found")
	errBadSignature    = errors.New("token signature mismatch")
)

type session struct {
	id       string
	username string
	codes    *otp.Generator
	lastSeen time.Time
}

// sessionManager issues session ids and checks TIPI-TOKEN signatures
// against the OTP code derived from each session's key. Sessions are keyed
// by the sessid wire form, since decoding it does not give back an
// odd-length id.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
	nextID   int64
	ttl      time.Duration
	now      func() time.Time
}

func newSessionManager(ttl time.Duration, now func() time.Time) *sessionManager {
	return &sessionManager{sessions: make(map[string]*session), nextID: 1000, ttl: ttl, now: now}
}

// create registers a session and returns its numeric id.
func (m *sessionManager) create(username string, key []byte) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	idStr := strconv.FormatInt(id, 10)
	m.sessions[protocol.EncodeSessionID(idStr)] = &session{
		id:       idStr,
		username: username,
		codes:    otp.New(key, otp.WithClock(m.now)),
		lastSeen: m.now(),
	}
	return id
}

// authenticate verifies a token and returns the session's username. Codes
// of the neighbouring steps are accepted to absorb clock skew.
func (m *sessionManager) authenticate(header string) (string, string, error) {
	tok, err := protocol.ParseToken(header)
	if err != nil {
		return "", "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	wire := protocol.EncodeSessionID(tok.SessID)
	s, ok := m.sessions[wire]
	if !ok || m.now().Sub(s.lastSeen) > m.ttl {
		delete(m.sessions, wire)
		return "", "", errSessionNotFound
	}

	step := s.codes.Step()
	for _, st := range []int64{step, step - 1, step + 1} {
		want := s.codes.MakeCode(st).Sign(s.id)
		if hmac.Equal([]byte(want), []byte(tok.Sign)) {
			s.lastSeen = m.now()
			return s.username, s.id, nil
		}
	}
	return "", "", errBadSignature
}

func (m *sessionManager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wire := protocol.EncodeSessionID(id)
	if s, ok := m.sessions[wire]; ok {
		s.codes.Close()
		delete(m.sessions, wire)
	}
}

func (m *sessionManager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.codes.Close()
		delete(m.sessions, id)
	}
}

func (m *sessionManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
