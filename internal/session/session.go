// Package session persists the signed-in user's bearer token and profile
// between invocations. It plays the role browser local storage plays for a
// web client: the HTTP client reads the token from it on every request and
// clears it when the server rejects the token.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"golang.org/x/oauth2"
)

// ErrNoSession is returned when an operation needs a token and none is stored.
var ErrNoSession = errors.New("not logged in")

// data is the on-disk form of a session
type data struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`
}

// Session holds the current token and user. Reads and writes are safe for
// concurrent use; every write is flushed to disk.
type Session struct {
	path string
	data data
	// override is a token supplied from the environment. It is never
	// written to disk.
	override string
	mu       sync.RWMutex
}

// DefaultPath returns the session file location in the user config dir.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "storefront", "session.json"), nil
}

// Load opens the session stored at the default location.
func Load() (*Session, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom opens the session stored at path. A missing or unreadable file
// yields an empty session.
func LoadFrom(path string) (*Session, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	s := &Session{path: path}
	if err := s.load(); err != nil {
		log.Debug("could not load session, starting fresh", "error", err)
		s.data = data{}
	}
	return s, nil
}

func (s *Session) load() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(raw, &s.data)
}

func (s *Session) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0600)
}

// Path returns the session file location.
func (s *Session) Path() string {
	return s.path
}

// SetOverride makes token take precedence over the stored one for the life
// of this process.
func (s *Session) SetOverride(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = token
}

// AccessToken returns the active token, or "" when logged out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override != "" {
		return s.override
	}
	return s.data.Token
}

// User returns the stored profile, if any.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// LoggedIn reports whether a token is available.
func (s *Session) LoggedIn() bool {
	return s.AccessToken() != ""
}

// Require returns ErrNoSession when there is no token.
func (s *Session) Require() error {
	if !s.LoggedIn() {
		return ErrNoSession
	}
	return nil
}

// Set stores a new token and user.
func (s *Session) Set(token string, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data{Token: token, User: user}
	return s.save()
}

// SetUser replaces the stored profile and keeps the token.
func (s *Session) SetUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.User = user
	return s.save()
}

// Clear forgets the token and user, including any environment override.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data{}
	s.override = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Token implements oauth2.TokenSource. It reads the session on every call
// so a login or logout takes effect on the next request.
func (s *Session) Token() (*oauth2.Token, error) {
	tok := s.AccessToken()
	if tok == "" {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

var _ oauth2.TokenSource = (*Session)(nil)
