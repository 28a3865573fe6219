package session

import (
	"context"
	"encoding/json"
)

// GetUserData fetches the caller's JSON document in namespace.
func (s *Session) GetUserData(ctx context.Context, namespace string) (json.RawMessage, error) {
	if namespace == "" {
		return nil, ErrNoNamespace
	}
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	return s.svc.GetUserData(ctx, token, namespace)
}

// PutUserData stores data, marshalled as JSON, in namespace and returns the
// service's reply.
func (s *Session) PutUserData(ctx context.Context, namespace string, data any) (json.RawMessage, error) {
	if namespace == "" {
		return nil, ErrNoNamespace
	}
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	return s.svc.PutUserData(ctx, token, namespace, data)
}
