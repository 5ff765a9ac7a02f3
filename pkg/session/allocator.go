package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Extender propagates session lifetime changes to the allocator's
// authoritative record. The session server calls it when a user extends
// a session; a false result (or an error) means the authoritative record
// was not updated and the local change must be rolled back.
//
// Implementations must be safe for concurrent use.
type Extender interface {
	ExtendSession(ctx context.Context, token string, d time.Duration) (bool, error)
}

// HostResolver answers "what host can the gateway reach this server at".
// That answer depends on deployment topology the runtime cannot know,
// so it is delegated to the allocator.
type HostResolver interface {
	BackendHost(ctx context.Context) (string, error)
}

// StaticHost is a HostResolver that always returns a fixed host.
type StaticHost string

// BackendHost returns the fixed host.
func (h StaticHost) BackendHost(ctx context.Context) (string, error) {
	return string(h), nil
}

// MemoryAllocator is a minimal in-process session allocator. It is
// suitable for single-binary deployments and tests; production setups
// run an external allocator service and implement Extender and
// HostResolver against it.
//
// The allocator keeps its own expiry per session, separate from the
// in-memory Session held by the server. The two views are reconciled
// only through ExtendSession, mirroring the split between a session
// server and an authoritative inventory.
type MemoryAllocator struct {
	mu       sync.Mutex
	byToken  map[string]*allocation
	host     string
	maxTTL   time.Duration
	nextPort int
}

type allocation struct {
	session   *Session
	expiresAt time.Time
	// maxExpiry is the hard lifetime ceiling fixed at allocation time.
	// Extensions may not push expiresAt past it.
	maxExpiry time.Time
}

// NewMemoryAllocator creates an allocator handing out ports from basePort
// upward. Sessions are capped at maxTTL from creation.
func NewMemoryAllocator(host string, basePort int, maxTTL time.Duration) *MemoryAllocator {
	return &MemoryAllocator{
		byToken:  make(map[string]*allocation),
		host:     host,
		maxTTL:   maxTTL,
		nextPort: basePort,
	}
}

// Allocate creates a session record for the given user with a fresh id,
// token, and port.
func (a *MemoryAllocator) Allocate(userID string, ttl time.Duration, now time.Time) *Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ttl > a.maxTTL {
		ttl = a.maxTTL
	}
	port := a.nextPort
	a.nextPort++

	s := New(
		uuid.NewString(),
		uuid.NewString(),
		userID,
		"",
		port,
		now,
		now.Add(ttl),
	)
	a.byToken[s.Token()] = &allocation{
		session:   s,
		expiresAt: s.ExpiresAt(),
		maxExpiry: now.Add(a.maxTTL),
	}
	return s
}

// ExtendSession implements Extender against the allocator's own records.
// Extensions that would push the session past its lifetime cap are
// refused, which makes the caller roll back its local expiry.
func (a *MemoryAllocator) ExtendSession(ctx context.Context, token string, d time.Duration) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.byToken[token]
	if !ok {
		return false, nil
	}
	next := rec.expiresAt.Add(d)
	if next.After(rec.maxExpiry) {
		return false, nil
	}
	rec.expiresAt = next
	return true, nil
}

// ExpiresAt returns the allocator's authoritative expiry for a token.
func (a *MemoryAllocator) ExpiresAt(token string) (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.byToken[token]
	if !ok {
		return time.Time{}, false
	}
	return rec.expiresAt, true
}

// BackendHost implements HostResolver.
func (a *MemoryAllocator) BackendHost(ctx context.Context) (string, error) {
	return a.host, nil
}

// Release forgets a session record.
func (a *MemoryAllocator) Release(token string) {
	a.mu.Lock()
	delete(a.byToken, token)
	a.mu.Unlock()
}
