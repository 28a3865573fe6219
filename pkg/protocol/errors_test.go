package protocol_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzdarsky/tipi/pkg/protocol"
)

func TestLoginError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *protocol.LoginError
		expected string
	}{
		{
			name:     "without cause",
			err:      protocol.NewPasswordError("Wrong password", nil),
			expected: "password: Wrong password",
		},
		{
			name:     "with cause",
			err:      protocol.NewNoConnectionError(errors.New("dial tcp: refused")),
			expected: "no_con: Identity service unreachable: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("cause")

	tests := []struct {
		name string
		err  *protocol.LoginError
		code protocol.ErrorCode
	}{
		{"no connection", protocol.NewNoConnectionError(cause), protocol.ErrCodeNoConnection},
		{"password", protocol.NewPasswordError("bad", cause), protocol.ErrCodePassword},
		{"protocol", protocol.NewProtocolError("bad", cause), protocol.ErrCodeProtocol},
		{"config", protocol.NewConfigError("bad", cause), protocol.ErrCodeConfig},
		{"cancelled", protocol.NewCancelledError(cause), protocol.ErrCodeCancelled},
		{"unknown", protocol.NewUnknownError(cause), protocol.ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.ErrorIs(t, tt.err, cause)
			assert.Equal(t, tt.code, protocol.CodeOf(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, protocol.ErrorCode(""), protocol.CodeOf(nil))
	assert.Equal(t, protocol.ErrCodeUnknown, protocol.CodeOf(errors.New("plain")))
}

func TestStatusError(t *testing.T) {
	err := &protocol.StatusError{
		StatusCode: 422,
		Body:       protocol.ErrorBody{Kind: protocol.ServerErrPartialUser, Clear: true},
	}
	assert.Equal(t, "identity service returned 422 Unprocessable Entity: partial_user", err.Error())

	err = &protocol.StatusError{StatusCode: 404, Body: protocol.ErrorBody{Message: "no such user"}}
	assert.Equal(t, "identity service returned 404 Not Found (no such user)", err.Error())

	var target *protocol.StatusError
	assert.True(t, errors.As(fmt.Errorf("round 1: %w", err), &target))
	assert.Equal(t, 404, target.StatusCode)
}

func TestErrorBody_JSON(t *testing.T) {
	var body protocol.ErrorBody
	require.NoError(t, json.Unmarshal([]byte(`{"error":"partial_user","clear":true}`), &body))
	assert.Equal(t, protocol.ServerErrPartialUser, body.Kind)
	assert.True(t, body.Clear)

	data, err := json.Marshal(protocol.ErrorBody{Kind: protocol.ServerErrPartialUserFailure})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"partial_user_failure"}`, string(data))
}
