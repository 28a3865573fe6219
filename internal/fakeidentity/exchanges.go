package fakeidentity

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/fzdarsky/tipi/pkg/srp"
)

// exchange is a login between round one and round two.
type exchange struct {
	username  string
	server    *srp.Server
	expiresAt time.Time
}

// exchangeStore holds pending exchanges keyed by the cookie set in round
// one. Entries are single use and expire after ttl.
type exchangeStore struct {
	mu        sync.Mutex
	exchanges map[string]*exchange
	ttl       time.Duration
	now       func() time.Time
}

func newExchangeStore(ttl time.Duration, now func() time.Time) *exchangeStore {
	return &exchangeStore{exchanges: make(map[string]*exchange), ttl: ttl, now: now}
}

func (s *exchangeStore) put(username string, server *srp.Server) (string, error) {
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("failed to generate exchange ID: %w", err)
	}
	id := base64.RawURLEncoding.EncodeToString(idBytes)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, ex := range s.exchanges {
		if now.After(ex.expiresAt) {
			delete(s.exchanges, k)
		}
	}
	s.exchanges[id] = &exchange{username: username, server: server, expiresAt: now.Add(s.ttl)}
	return id, nil
}

// take removes and returns the exchange, or nil if unknown or expired.
func (s *exchangeStore) take(id string) *exchange {
	s.mu.Lock()
	defer s.mu.Unlock()

	ex, ok := s.exchanges[id]
	if !ok {
		return nil
	}
	delete(s.exchanges, id)
	if s.now().After(ex.expiresAt) {
		return nil
	}
	return ex
}

func (s *exchangeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exchanges)
}
