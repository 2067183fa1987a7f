// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/util"
)

// ErrNotSignedIn is returned by Load when no session file exists.
var ErrNotSignedIn = errors.New("not signed in")

// sessionFile is the file name under the config directory.
const sessionFile = "session.json"

// =============================================================================
// SESSION
// =============================================================================

// Session is the persisted identity of the signed-in user.
type Session struct {
	User    model.User `json:"user"`
	Token   string     `json:"token"`
	SavedAt time.Time  `json:"savedAt"`
}

// Valid reports whether the session carries enough to authenticate.
func (s Session) Valid() bool {
	return s.User.ID != "" && s.Token != ""
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the session file. A Store is cheap and stateless;
// every call hits the filesystem.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. An empty dir selects the default
// config directory (~/.fixonway).
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".fixonway")
	}
	return &Store{dir: dir}, nil
}

// Path returns the session file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, sessionFile)
}

// Load reads the saved session. Returns ErrNotSignedIn when no session file
// exists, or when the file decodes to an incomplete identity.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNotSignedIn
		}
		return Session{}, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("parse session: %w", err)
	}
	if !sess.Valid() {
		return Session{}, ErrNotSignedIn
	}
	return sess, nil
}

// Save writes the session atomically with owner-only permissions. The
// directory is created if missing.
func (s *Store) Save(sess Session) error {
	if !sess.Valid() {
		return errors.New("refusing to save incomplete session")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	sess.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := util.AtomicWriteFile(s.Path(), data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing an absent session is not an
// error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
