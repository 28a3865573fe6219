// Package fakeidentity is an in-process Identity Service for tests. It runs
// the real SRP server role, issues session ids, checks TIPI-TOKEN headers
// and can be told to misbehave.
package fakeidentity

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/fzdarsky/tipi/internal/logging"
	"github.com/fzdarsky/tipi/pkg/bignum"
	"github.com/fzdarsky/tipi/pkg/protocol"
	"github.com/fzdarsky/tipi/pkg/srp"
)

const (
	exchangeCookie  = "tipi_exchange"
	maxBodyBytes    = 1 << 20
	defaultTTL      = 30 * time.Minute
	exchangeTTL     = 2 * time.Minute
	errBadRequest   = "bad_request"
	errNotFound     = "not_found"
	errUnauthorized = "unauthorized"
)

// Option configures a Server.
type Option func(*Server)

// WithClock sets the server clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger sets the request logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Stats counts handled requests.
type Stats struct {
	LoginInits    int
	LoginVerifies int
	ClearLogins   int
	Pings         int
	Logouts       int
	// PublicA lists the A values received in round one, in order.
	PublicA []string
}

// Server is a fake Identity Service.
type Server struct {
	group     *srp.Group
	router    *mux.Router
	logger    *logging.Logger
	now       func() time.Time
	users     *directory
	exchanges *exchangeStore
	sessions  *sessionManager

	mu             sync.Mutex
	failVerify     int
	pingSuccess    bool
	clockOffset    time.Duration
	unavailable    bool
	loginStatus    int
	loginErrorBody protocol.ErrorBody
	userData       map[string]json.RawMessage
	stats          Stats
}

// New creates a server using group for every account.
func New(group *srp.Group, opts ...Option) *Server {
	s := &Server{
		group:       group,
		logger:      logging.Discard(),
		now:         time.Now,
		pingSuccess: true,
		userData:    make(map[string]json.RawMessage),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.users = newDirectory(group)
	s.exchanges = newExchangeStore(exchangeTTL, s.now)
	s.sessions = newSessionManager(defaultTTL, s.now)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.availability)
	r.HandleFunc("/session/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/session/ping", s.authenticated(s.handlePing)).Methods(http.MethodPost)
	r.HandleFunc("/session/logout", s.authenticated(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/users/data/{namespace}", s.authenticated(s.handleGetUserData)).Methods(http.MethodGet)
	r.HandleFunc("/users/data/{namespace}", s.authenticated(s.handlePutUserData)).Methods(http.MethodPut)
	r.HandleFunc("/time", s.handleTime).Methods(http.MethodGet)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddUser registers a complete account.
func (s *Server) AddUser(username, password string) error {
	return s.users.add(username, password)
}

// AddPartialUser registers an account that must send its clear password
// once before SRP can proceed.
func (s *Server) AddPartialUser(username, password string) {
	s.users.addPartial(username, password)
}

// FailVerifications makes the next n round-two requests fail with 400.
func (s *Server) FailVerifications(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failVerify = n
}

// FailLogins answers every round-one request with status and body until
// reset with status 0.
func (s *Server) FailLogins(status int, body protocol.ErrorBody) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginStatus = status
	s.loginErrorBody = body
}

// SetPingSuccess sets the success flag returned by ping.
func (s *Server) SetPingSuccess(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingSuccess = ok
}

// SetClockOffset shifts the time reported by the time endpoint.
func (s *Server) SetClockOffset(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clockOffset = d
}

// SetUnavailable makes every endpoint answer 503.
func (s *Server) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

// ExpireSessions forgets every issued session.
func (s *Server) ExpireSessions() {
	s.sessions.clear()
}

// ActiveSessions returns the number of live sessions.
func (s *Server) ActiveSessions() int {
	return s.sessions.count()
}

// PendingExchanges returns the number of logins waiting for round two.
func (s *Server) PendingExchanges() int {
	return s.exchanges.count()
}

// Stats returns a snapshot of the request counters.
func (s *Server) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.PublicA = append([]string(nil), s.stats.PublicA...)
	return st
}

type loginRequest struct {
	protocol.LoginInitRequest
	M1 string `json:"M1"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "invalid request body"})
		return
	}
	if req.M1 != "" {
		s.handleVerify(w, r, req.M1)
		return
	}
	s.handleInit(w, &req.LoginInitRequest)
}

func (s *Server) handleInit(w http.ResponseWriter, req *protocol.LoginInitRequest) {
	s.mu.Lock()
	s.stats.LoginInits++
	s.stats.PublicA = append(s.stats.PublicA, req.A)
	if req.Clear != "" {
		s.stats.ClearLogins++
	}
	status, body := s.loginStatus, s.loginErrorBody
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, body)
		return
	}

	A, err := bignum.FromHex(req.A)
	if err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "username and A are required"})
		return
	}

	salt, verifier, err := s.users.credentials(req.Username, req.Clear)
	switch {
	case errors.Is(err, errUnknownUser):
		writeError(w, http.StatusNotFound, protocol.ErrorBody{Kind: errNotFound})
		return
	case errors.Is(err, errPartialUser):
		writeError(w, http.StatusUnprocessableEntity, protocol.ErrorBody{Kind: protocol.ServerErrPartialUser, Clear: true})
		return
	case errors.Is(err, errPartialFailed):
		writeError(w, http.StatusForbidden, protocol.ErrorBody{Kind: protocol.ServerErrPartialUserFailure})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, protocol.ErrorBody{Message: err.Error()})
		return
	}

	server := srp.NewServer(s.group, verifier)
	B, err := server.ComputeB()
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.ErrorBody{Message: err.Error()})
		return
	}
	if err := server.SetClientPublic(A); err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: err.Error()})
		return
	}

	id, err := s.exchanges.put(req.Username, server)
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.ErrorBody{Message: err.Error()})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: exchangeCookie, Value: id, Path: "/", HttpOnly: true})

	s.logger.Debug("login round one", map[string]any{"identity": req.Username})
	writeJSON(w, http.StatusOK, protocol.LoginInitResponse{B: B.Hex(), Salt: salt.Hex()})
}

// verifyResponse sends sess_id as a JSON number.
type verifyResponse struct {
	M2     string `json:"M2"`
	SessID int64  `json:"sess_id"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, m1Hex string) {
	s.mu.Lock()
	s.stats.LoginVerifies++
	inject := s.failVerify > 0
	if inject {
		s.failVerify--
	}
	s.mu.Unlock()

	cookie, err := r.Cookie(exchangeCookie)
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "no pending exchange"})
		return
	}
	ex := s.exchanges.take(cookie.Value)
	if ex == nil {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "no pending exchange"})
		return
	}
	if inject {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "verification failed"})
		return
	}

	M1, err := bignum.FromHex(m1Hex)
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "invalid M1"})
		return
	}
	M2, err := ex.server.CheckM1(M1)
	if err != nil {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "verification failed"})
		return
	}
	key, err := ex.server.SessionKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, protocol.ErrorBody{Message: err.Error()})
		return
	}

	id := s.sessions.create(ex.username, key)
	s.logger.Info("login verified", map[string]any{"identity": ex.username, "sess_id": id})
	writeJSON(w, http.StatusOK, verifyResponse{M2: srp.DigestHex(M2), SessID: id})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, username, sessID string)

func (s *Server) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, sessID, err := s.sessions.authenticate(r.Header.Get("Authorization"))
		switch {
		case errors.Is(err, errSessionNotFound):
			writeError(w, http.StatusNotFound, protocol.ErrorBody{Kind: errNotFound, Message: "unknown session"})
			return
		case err != nil:
			writeError(w, http.StatusUnauthorized, protocol.ErrorBody{Kind: errUnauthorized, Message: err.Error()})
			return
		}
		next(w, r, username, sessID)
	}
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request, _, _ string) {
	s.mu.Lock()
	s.stats.Pings++
	ok := s.pingSuccess
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, protocol.PingResponse{Success: ok})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, _, sessID string) {
	s.mu.Lock()
	s.stats.Logouts++
	s.mu.Unlock()
	s.sessions.remove(sessID)
	writeJSON(w, http.StatusOK, protocol.PingResponse{Success: true})
}

func (s *Server) handleGetUserData(w http.ResponseWriter, r *http.Request, username, _ string) {
	key := username + "/" + mux.Vars(r)["namespace"]

	s.mu.Lock()
	data, ok := s.userData[key]
	s.mu.Unlock()

	if !ok {
		data = json.RawMessage(`{}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handlePutUserData(w http.ResponseWriter, r *http.Request, username, _ string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, protocol.ErrorBody{Kind: errBadRequest, Message: "body must be JSON"})
		return
	}
	key := username + "/" + mux.Vars(r)["namespace"]

	s.mu.Lock()
	s.userData[key] = body
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, protocol.PingResponse{Success: true})
}

func (s *Server) handleTime(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	offset := s.clockOffset
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, protocol.TimeResponse{Time: s.now().Add(offset).UnixMilli()})
}

func (s *Server) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		down := s.unavailable
		s.mu.Unlock()
		if down {
			writeError(w, http.StatusServiceUnavailable, protocol.ErrorBody{Message: "maintenance"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body protocol.ErrorBody) {
	writeJSON(w, status, body)
}
