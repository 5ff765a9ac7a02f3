// Package session defines the session record a dashboard server is bound
// to, plus the collaborator interfaces the external session allocator
// implements.
//
// The runtime never creates or destroys sessions itself: it receives a
// Session from the allocator, observes its expiry, and pushes lifetime
// changes back through the Extender interface.
package session

import (
	"sync"
	"time"
)

// Session is one live dashboard instance: an authenticated, time-bounded
// binding between a user, a token, and a port.
//
// Fields are mutated by concurrent request handlers (activity touches,
// extensions), so all access goes through the accessor methods.
type Session struct {
	mu sync.RWMutex

	id     string
	token  string
	userID string

	url  string
	port int

	startedAt    time.Time
	lastActivity time.Time
	expiresAt    time.Time
}

// Record is an immutable snapshot of a Session's fields.
type Record struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	URL          string    `json:"url"`
	Port         int       `json:"port"`
	StartedAt    time.Time `json:"startedAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// New creates a Session record. The expiry is clamped to be no earlier
// than the start time, preserving the expiresAt >= startedAt invariant.
func New(id, token, userID, url string, port int, startedAt, expiresAt time.Time) *Session {
	if expiresAt.Before(startedAt) {
		expiresAt = startedAt
	}
	return &Session{
		id:           id,
		token:        token,
		userID:       userID,
		url:          url,
		port:         port,
		startedAt:    startedAt,
		lastActivity: startedAt,
		expiresAt:    expiresAt,
	}
}

// ID returns the opaque session identifier.
func (s *Session) ID() string { return s.id }

// Token returns the bearer token authenticating this session.
func (s *Session) Token() string { return s.token }

// UserID returns the owning user's identifier.
func (s *Session) UserID() string { return s.userID }

// URL returns the externally reachable URL of this session.
func (s *Session) URL() string { return s.url }

// Port returns the port the session server is bound to.
func (s *Session) Port() int { return s.port }

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Active reports whether the session has not yet expired at the given time.
func (s *Session) Active(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Before(s.expiresAt)
}

// ExpiresAt returns the current absolute expiry time.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// LastActivity returns the last user-initiated activity time.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Touch records user-initiated activity. Passive data polling must not
// call Touch.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastActivity = now
	s.mu.Unlock()
}

// Extend advances the expiry by d and records activity, returning the new
// expiry. Range validation is the caller's job; Extend only applies the
// delta.
func (s *Session) Extend(d time.Duration, now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = s.expiresAt.Add(d)
	s.lastActivity = now
	return s.expiresAt
}

// Restore overwrites expiry and last-activity with previously snapshotted
// values. Used to roll back a local Extend when propagating it to the
// authoritative record fails.
func (s *Session) Restore(expiresAt, lastActivity time.Time) {
	s.mu.Lock()
	s.expiresAt = expiresAt
	s.lastActivity = lastActivity
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of the session's public fields.
func (s *Session) Snapshot() Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Record{
		ID:           s.id,
		UserID:       s.userID,
		URL:          s.url,
		Port:         s.port,
		StartedAt:    s.startedAt,
		LastActivity: s.lastActivity,
		ExpiresAt:    s.expiresAt,
	}
}
