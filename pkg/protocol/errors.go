// Package protocol defines the wire types of the identity service and the
// classified errors a login can end with.
package protocol

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies why a login did not succeed.
type ErrorCode string

// Login error codes.
const (
	// ErrCodeNoConnection indicates the identity service could not be reached.
	ErrCodeNoConnection ErrorCode = "no_con"
	// ErrCodePassword indicates wrong credentials or an unknown identity.
	ErrCodePassword ErrorCode = "password"
	// ErrCodeProtocol indicates a malformed or incomplete response.
	ErrCodeProtocol ErrorCode = "protocol"
	// ErrCodeConfig indicates invalid local configuration.
	ErrCodeConfig ErrorCode = "config"
	// ErrCodeCancelled indicates the login was superseded or cancelled.
	ErrCodeCancelled ErrorCode = "cancelled"
	// ErrCodeUnknown indicates any other failure.
	ErrCodeUnknown ErrorCode = "unknown"
)

// Error identifiers sent by the identity service in ErrorBody.Kind.
const (
	ServerErrPartialUser        = "partial_user"
	ServerErrPartialUserFailure = "partial_user_failure"
)

var (
	// ErrNoConnection marks transport failures talking to the identity service.
	ErrNoConnection = errors.New("no connection to identity service")

	// ErrMalformedResponse marks a success response that could not be decoded
	// or lacked required fields.
	ErrMalformedResponse = errors.New("malformed response")
)

// ErrorBody is the JSON body of an identity service error response.
type ErrorBody struct {
	Kind    string `json:"error,omitempty"`
	Clear   bool   `json:"clear,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusError is an HTTP error response from the identity service.
type StatusError struct {
	StatusCode int
	Body       ErrorBody
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("identity service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body.Kind != "" {
		msg += ": " + e.Body.Kind
	}
	if e.Body.Message != "" {
		msg += " (" + e.Body.Message + ")"
	}
	return msg
}

// LoginError is the classified outcome of a failed login.
type LoginError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LoginError) Unwrap() error { return e.Err }

// NewLoginError creates a LoginError.
func NewLoginError(code ErrorCode, message string, err error) *LoginError {
	return &LoginError{Code: code, Message: message, Err: err}
}

// NewNoConnectionError creates a no_con error.
func NewNoConnectionError(err error) *LoginError {
	return NewLoginError(ErrCodeNoConnection, "Identity service unreachable", err)
}

// NewPasswordError creates a password error.
func NewPasswordError(message string, err error) *LoginError {
	return NewLoginError(ErrCodePassword, message, err)
}

// NewProtocolError creates a protocol error.
func NewProtocolError(message string, err error) *LoginError {
	return NewLoginError(ErrCodeProtocol, message, err)
}

// NewConfigError creates a config error.
func NewConfigError(message string, err error) *LoginError {
	return NewLoginError(ErrCodeConfig, message, err)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(err error) *LoginError {
	return NewLoginError(ErrCodeCancelled, "Login cancelled", err)
}

// NewUnknownError creates an unknown error.
func NewUnknownError(err error) *LoginError {
	return NewLoginError(ErrCodeUnknown, "Login failed", err)
}

// CodeOf returns the classification of err, or ErrCodeUnknown when err is
// not a LoginError. CodeOf(nil) is the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var le *LoginError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeUnknown
}
