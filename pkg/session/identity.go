package session

import (
	"context"
	"encoding/json"

	"github.com/fzdarsky/tipi/pkg/protocol"
)

// IdentityService is the remote side of a Session. The HTTP client in
// internal/client implements it.
type IdentityService interface {
	LoginInit(ctx context.Context, req *protocol.LoginInitRequest) (*protocol.LoginInitResponse, error)
	LoginVerify(ctx context.Context, req *protocol.LoginVerifyRequest) (*protocol.LoginVerifyResponse, error)
	Ping(ctx context.Context, token string) (bool, error)
	Logout(ctx context.Context, token string) error
	GetUserData(ctx context.Context, token, namespace string) (json.RawMessage, error)
	PutUserData(ctx context.Context, token, namespace string, data any) (json.RawMessage, error)
	Time(ctx context.Context) (int64, error)
}

// Logger receives the session's structured log entries.
type Logger interface {
	Debug(msg string, fields ...map[string]any)
	Info(msg string, fields ...map[string]any)
	Warn(msg string, fields ...map[string]any)
	Error(msg string, fields ...map[string]any)
}
