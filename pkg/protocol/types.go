package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// APIVersion is sent in the Accept-Version header.
	APIVersion = "~2"

	// AuthScheme prefixes the Authorization header value.
	AuthScheme = "TIPI-TOKEN"
)

// LoginInitRequest is round one of the login exchange.
type LoginInitRequest struct {
	Username  string `json:"username"`
	Namespace string `json:"namespace"`
	A         string `json:"A"` // hex
	Clear     string `json:"clear"`
}

// LoginInitResponse carries the server ephemeral and the user's salt.
type LoginInitResponse struct {
	B    string `json:"B"` // hex
	Salt string `json:"s"` // hex
}

// LoginVerifyRequest is round two of the login exchange.
type LoginVerifyRequest struct {
	M1 string `json:"M1"` // hex
}

// LoginVerifyResponse carries the server proof and the new session id.
type LoginVerifyResponse struct {
	M2     string    `json:"M2"` // hex
	SessID SessionID `json:"sess_id"`
}

// PingResponse is returned by the ping endpoint.
type PingResponse struct {
	Success bool `json:"success"`
}

// TimeResponse is returned by the time endpoint.
type TimeResponse struct {
	Time int64 `json:"time"` // unix ms
}

// SessionID is the server-assigned session identifier. The service has sent
// it both as a JSON string and as a number; both decode to the same text.
type SessionID string

// UnmarshalJSON implements json.Unmarshaler.
func (s *SessionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SessionID(str)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid session id %s: %w", data, err)
		}
		*s = SessionID(n.String())
		return nil
	}
}

// Validate checks that both round-one values are present.
func (r *LoginInitResponse) Validate() error {
	if r.B == "" || r.Salt == "" {
		return fmt.Errorf("%w: login response lacks B or s", ErrMalformedResponse)
	}
	return nil
}

// Validate checks that the server proof and session id are present.
func (r *LoginVerifyResponse) Validate() error {
	if r.M2 == "" || r.SessID == "" {
		return fmt.Errorf("%w: login response lacks M2 or sess_id", ErrMalformedResponse)
	}
	return nil
}
