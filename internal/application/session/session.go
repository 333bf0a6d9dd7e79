// Package session tracks the single active login of the dashboard process.
// The session is volatile: it lives in memory only and is never persisted,
// so restarting the process always starts logged out.
package session

import (
	"sync"
	"time"

	"github.com/edudash-hub/edudash-engine/internal/domain/user"
)

// Marker identifies the logged-in user.
type Marker struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Kind      user.Kind `json:"kind"`
	StartedAt time.Time `json:"startedAt"`
}

// Session holds at most one active login.
type Session struct {
	mu      sync.RWMutex
	current *Marker
}

// New creates an empty session.
func New() *Session {
	return &Session{}
}

// Begin replaces any active login with the given user.
func (s *Session) Begin(u user.Record, at time.Time) Marker {
	m := Marker{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Kind:      u.Kind,
		StartedAt: at,
	}
	s.mu.Lock()
	s.current = &m
	s.mu.Unlock()
	return m
}

// Current returns the active login, if any.
func (s *Session) Current() (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Marker{}, false
	}
	return *s.current, true
}

// End clears the active login. Ending an already-empty session is a no-op.
func (s *Session) End() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}
