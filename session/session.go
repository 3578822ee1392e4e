// Package session stores the platform bearer credential between CLI runs.
// The on-disk format is a small versioned JSON envelope, written with
// user-only permissions.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Store is the ambient credential store consulted by the API clients.
type Store interface {
	// Token returns the stored bearer token. ok is false when no token
	// is stored; that is not an error.
	Token() (token string, ok bool)
	SetToken(token string) error
	Clear() error
}

// envelope is the v1 on-disk format.
type envelope struct {
	Version   int       `json:"version"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileStore persists the token at a fixed path.
type FileStore struct {
	path string
}

// Interface compliance check.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the conventional store location under the user
// config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "dbassist", "session.json"), nil
}

// Token reads the stored token. A missing or unreadable file yields no
// token rather than an error; the caller treats absence as "not logged
// in".
func (s *FileStore) Token() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Version != 1 || env.Token == "" {
		return "", false
	}
	return env.Token, true
}

// SetToken writes the token, creating the parent directory as needed.
func (s *FileStore) SetToken(token string) error {
	env := envelope{Version: 1, Token: token, UpdatedAt: time.Now().UTC()}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}

// Clear removes the stored token. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
