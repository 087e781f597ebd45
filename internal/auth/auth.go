// Package auth holds the client's credential state: the bearer token, a
// best-effort local view of its expiry, and the single invalidation signal
// triggered by 401 responses.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State is the session credential holder passed into the controller and
// the API client at construction. Safe for concurrent use.
type State struct {
	mu           sync.Mutex
	token        string
	invalidated  bool
	onInvalidate func()
}

// NewState wraps an access token.
func NewState(token string) *State {
	return &State{token: token}
}

// OnInvalidate registers a callback fired exactly once when the session is
// invalidated (401 from the backend).
func (s *State) OnInvalidate(fn func()) {
	s.mu.Lock()
	s.onInvalidate = fn
	s.mu.Unlock()
}

// Token returns the bearer token and whether it is still usable.
func (s *State) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated || s.token == "" {
		return "", false
	}
	return s.token, true
}

// SetToken replaces the token after a fresh login and clears the
// invalidated flag.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.invalidated = false
	s.mu.Unlock()
}

// Invalidate marks the credentials unusable and fires the registered
// callback once. Repeat calls are no-ops.
func (s *State) Invalidate() {
	s.mu.Lock()
	if s.invalidated {
		s.mu.Unlock()
		return
	}
	s.invalidated = true
	fn := s.onInvalidate
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Invalidated reports whether the session has been invalidated.
func (s *State) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// ExpiresAt inspects the token's exp claim without verifying the
// signature — verification is the backend's job, the client only wants to
// warn before the deadline. Returns false for opaque or claimless tokens.
func (s *State) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// ExpiringWithin reports whether the token's exp claim falls inside the
// given window. Opaque tokens report false; the 401 path still covers them.
func (s *State) ExpiringWithin(window time.Duration) bool {
	exp, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return time.Until(exp) <= window
}
