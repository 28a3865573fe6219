// Package store persists the session record between process runs.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fzdarsky/tipi/pkg/config"
)

const (
	recordFileMode = 0o600 // Owner read/write only
)

// Record is the persisted session state. Key is the lowercase hex session
// key and Heartbeat is a unix timestamp in seconds; both are empty once the
// session is destroyed, while Identity is kept.
type Record struct {
	Identity  string `json:"identity"`
	Key       string `json:"key"`
	SessID    string `json:"sess_id"`
	Heartbeat int64  `json:"heartbeat,omitempty"`
}

// Active reports whether the record carries session material.
func (r *Record) Active() bool {
	return r != nil && r.SessID != "" && r.Key != ""
}

// Cleared returns a copy holding only the identity.
func (r *Record) Cleared() *Record {
	if r == nil {
		return &Record{}
	}
	return &Record{Identity: r.Identity}
}

// Store loads and saves the session record.
type Store interface {
	// Load returns the stored record, or nil when none exists.
	Load() (*Record, error)
	Save(rec *Record) error
	Clear() error
}

// FileStore keeps the record as a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path, creating its directory with 0700
// permissions.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := config.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the record. A missing file is not an error.
func (s *FileStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path) // #nosec G304 - path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session record %s: %w", s.path, err)
	}
	return &rec, nil
}

// Save writes the record through a temporary file so a crash never leaves a
// truncated record behind.
func (s *FileStore) Save(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(recordFileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to save session record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to save session record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

// Clear deletes the record file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored record.
func (s *MemoryStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, nil
	}
	rec := *s.rec
	return &rec, nil
}

// Save stores a copy of rec.
func (s *MemoryStore) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.rec = &cp
	return nil
}

// Clear drops the record.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
