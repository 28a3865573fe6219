package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/internal/client"
	"github.com/fzdarsky/tipi/pkg/protocol"
)

func newClient(t *testing.T, h http.Handler) *client.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL+"/api/", client.WithBackoff(time.Millisecond))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_InvalidBaseURL(t *testing.T) {
	for _, u := range []string{"", "localhost:8080", "ftp://x", "https://", "://bad"} {
		_, err := client.New(u)
		assert.Error(t, err, u)
	}
}

func TestLoginRounds(t *testing.T) {
	var round int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/session/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "~2", r.Header.Get("Accept-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		body, _ := io.ReadAll(r.Body)
		switch atomic.AddInt32(&round, 1) {
		case 1:
			assert.JSONEq(t, `{"username":"alice","namespace":"app","A":"ab","clear":""}`, string(body))
			http.SetCookie(w, &http.Cookie{Name: "exchange", Value: "e1", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]string{"B": "cd", "s": "ef"})
		case 2:
			assert.JSONEq(t, `{"M1":"01"}`, string(body))
			cookie, err := r.Cookie("exchange")
			require.NoError(t, err, "round two must carry the round one cookie")
			assert.Equal(t, "e1", cookie.Value)
			writeJSON(w, http.StatusOK, map[string]any{"M2": "02", "sess_id": 77})
		}
	}))

	ctx := context.Background()
	first, err := c.LoginInit(ctx, &protocol.LoginInitRequest{Username: "alice", Namespace: "app", A: "ab"})
	require.NoError(t, err)
	assert.Equal(t, "cd", first.B)
	assert.Equal(t, "ef", first.Salt)

	verify, err := c.LoginVerify(ctx, &protocol.LoginVerifyRequest{M1: "01"})
	require.NoError(t, err)
	assert.Equal(t, "02", verify.M2)
	assert.Equal(t, protocol.SessionID("77"), verify.SessID)
}

func TestLoginInit_StatusError(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "partial_user", "clear": true})
	}))

	_, err := c.LoginInit(context.Background(), &protocol.LoginInitRequest{Username: "alice"})
	var se *protocol.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, protocol.ServerErrPartialUser, se.Body.Kind)
	assert.True(t, se.Body.Clear)
}

func TestStatusError_NonJSONBody(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	_, err := c.LoginInit(context.Background(), &protocol.LoginInitRequest{})
	var se *protocol.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Empty(t, se.Body.Kind)
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"missing salt", `{"B":"cd"}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			_, err := c.LoginInit(context.Background(), &protocol.LoginInitRequest{})
			assert.ErrorIs(t, err, protocol.ErrMalformedResponse)
		})
	}
}

func TestNoConnection(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := client.New(base, client.WithBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = c.LoginInit(context.Background(), &protocol.LoginInitRequest{})
	assert.ErrorIs(t, err, protocol.ErrNoConnection)

	_, err = c.Time(context.Background())
	assert.ErrorIs(t, err, protocol.ErrNoConnection)
}

func TestPingAndLogout(t *testing.T) {
	const token = `TIPI-TOKEN sessid="YWJj", sign="x"`
	var alive atomic.Bool
	alive.Store(true)

	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, token, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/session/ping":
			writeJSON(w, http.StatusOK, protocol.PingResponse{Success: alive.Load()})
		case "/api/session/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ctx := context.Background()
	ok, err := c.Ping(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	alive.Store(false)
	ok, err = c.Ping(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, c.Logout(ctx, token))
}

func TestUserData(t *testing.T) {
	stored := json.RawMessage(`{"theme":"dark"}`)
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/data/my%20app", r.URL.EscapedPath())
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write(stored)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			stored = body
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		}
	}))

	ctx := context.Background()
	data, err := c.GetUserData(ctx, "tok", "my app")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark"}`, string(data))

	reply, err := c.PutUserData(ctx, "tok", "my app", map[string]string{"theme": "light"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(reply))

	data, err = c.GetUserData(ctx, "tok", "my app")
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"light"}`, string(data))
}

func TestTime(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/time", r.URL.Path)
		writeJSON(w, http.StatusOK, protocol.TimeResponse{Time: 1_700_000_000_123})
	}))

	ms, err := c.Time(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_123), ms)
}

func TestRetriesIdempotentRequestsOnServerError(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, protocol.TimeResponse{Time: 5})
	}))

	ms, err := c.Time(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), ms)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetriesGiveUp(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := c.Time(context.Background())
	var se *protocol.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestDoesNotRetryLoginRounds(t *testing.T) {
	var calls int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.LoginVerify(context.Background(), &protocol.LoginVerifyRequest{M1: "01"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestContextCancelled(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, protocol.PingResponse{Success: true})
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Ping(ctx, "tok")
	assert.ErrorIs(t, err, protocol.ErrNoConnection)
	assert.ErrorIs(t, err, context.Canceled)
}
