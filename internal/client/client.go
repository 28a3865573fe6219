// Package client is the HTTP client for the Identity Service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fzdarsky/tipi/pkg/protocol"
)

const (
	defaultTimeout  = 30 * time.Second
	contentTypeJSON = "application/json"
	maxRetries      = 3
	initialBackoff  = 500 * time.Millisecond
	maxBackoff      = 5 * time.Second

	headerAcceptVersion = "Accept-Version"
	headerRequestID     = "X-Request-ID"
	headerAuthorization = "Authorization"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar, if
// any, must be set for the two login rounds to reach the same exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithBackoff sets the initial delay between retries of idempotent requests.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// Client talks to the Identity Service. Login rounds are correlated by the
// service through cookies, so a Client must not be shared by concurrent
// logins.
type Client struct {
	baseURL    string
	httpClient *http.Client
	backoff    time.Duration
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    u.String(),
		httpClient: &http.Client{Jar: jar, Timeout: defaultTimeout},
		backoff:    initialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// LoginInit sends round one of the login exchange.
func (c *Client) LoginInit(ctx context.Context, req *protocol.LoginInitRequest) (*protocol.LoginInitResponse, error) {
	var resp protocol.LoginInitResponse
	if err := c.do(ctx, http.MethodPost, "", req, &resp, false, "session", "login"); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoginVerify sends round two of the login exchange.
func (c *Client) LoginVerify(ctx context.Context, req *protocol.LoginVerifyRequest) (*protocol.LoginVerifyResponse, error) {
	var resp protocol.LoginVerifyResponse
	if err := c.do(ctx, http.MethodPost, "", req, &resp, false, "session", "login"); err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping reports whether the service still considers the session alive.
func (c *Client) Ping(ctx context.Context, token string) (bool, error) {
	var resp protocol.PingResponse
	if err := c.do(ctx, http.MethodPost, token, nil, &resp, false, "session", "ping"); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Logout ends the session on the service.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, token, nil, nil, false, "session", "logout")
}

// GetUserData fetches the JSON document stored for namespace.
func (c *Client) GetUserData(ctx context.Context, token, namespace string) (json.RawMessage, error) {
	var data json.RawMessage
	if err := c.do(ctx, http.MethodGet, token, nil, &data, true, "users", "data", namespace); err != nil {
		return nil, err
	}
	return data, nil
}

// PutUserData replaces the JSON document stored for namespace and returns
// the service's reply.
func (c *Client) PutUserData(ctx context.Context, token, namespace string, data any) (json.RawMessage, error) {
	var reply json.RawMessage
	if err := c.do(ctx, http.MethodPut, token, data, &reply, true, "users", "data", namespace); err != nil {
		return nil, err
	}
	return reply, nil
}

// Time returns the service clock in unix milliseconds.
func (c *Client) Time(ctx context.Context) (int64, error) {
	var resp protocol.TimeResponse
	if err := c.do(ctx, http.MethodGet, "", nil, &resp, true, "time"); err != nil {
		return 0, err
	}
	if resp.Time == 0 {
		return 0, fmt.Errorf("%w: time response lacks time", protocol.ErrMalformedResponse)
	}
	return resp.Time, nil
}

// do performs one request. Idempotent requests are retried on transient
// transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, method, token string, body, response any, retry bool, path ...string) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	attempts := 1
	if retry {
		attempts += maxRetries
	}
	backoff := c.backoff

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return fmt.Errorf("%w: %w", protocol.ErrNoConnection, err)
			}
			backoff = min(backoff*2, maxBackoff)
		}

		status, respBytes, err := c.roundTrip(ctx, method, endpoint, token, payload)
		if err != nil {
			lastErr = fmt.Errorf("%w: %s %s: %w", protocol.ErrNoConnection, method, endpoint, err)
			if isRetryable(err) && ctx.Err() == nil {
				continue
			}
			return lastErr
		}

		if status >= http.StatusBadRequest {
			lastErr = statusError(status, respBytes)
			if status >= http.StatusInternalServerError {
				continue
			}
			return lastErr
		}

		if response != nil {
			if len(bytes.TrimSpace(respBytes)) == 0 {
				respBytes = []byte("null")
			}
			if err := json.Unmarshal(respBytes, response); err != nil {
				return fmt.Errorf("%w: %s %s: %w", protocol.ErrMalformedResponse, method, endpoint, err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint, token string, payload []byte) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerAcceptVersion, protocol.APIVersion)
	req.Header.Set(headerRequestID, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if token != "" {
		req.Header.Set(headerAuthorization, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// statusError decodes the service's error body when it has one.
func statusError(status int, body []byte) *protocol.StatusError {
	se := &protocol.StatusError{StatusCode: status}
	_ = json.Unmarshal(body, &se.Body)
	return se
}

func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
