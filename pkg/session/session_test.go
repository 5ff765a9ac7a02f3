package session

import (
	"context"
	"testing"
	"time"
)

func TestNew_ClampsExpiryToStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New("id", "tok", "user", "", 4100, start, start.Add(-time.Hour))

	if got := s.ExpiresAt(); got.Before(start) {
		t.Fatalf("ExpiresAt() = %v, want >= %v", got, start)
	}
	if s.Active(start) {
		t.Fatalf("Active(start) = true for zero-length session, want false")
	}
}

func TestActive(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New("id", "tok", "user", "", 4100, start, start.Add(30*time.Minute))

	if !s.Active(start.Add(29 * time.Minute)) {
		t.Fatalf("Active before expiry = false, want true")
	}
	if s.Active(start.Add(30 * time.Minute)) {
		t.Fatalf("Active at expiry = true, want false")
	}
}

func TestExtend_AdvancesExpiryAndActivity(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New("id", "tok", "user", "", 4100, start, start.Add(30*time.Minute))

	now := start.Add(10 * time.Minute)
	got := s.Extend(15*time.Minute, now)

	want := start.Add(45 * time.Minute)
	if !got.Equal(want) {
		t.Fatalf("Extend() = %v, want %v", got, want)
	}
	if !s.LastActivity().Equal(now) {
		t.Fatalf("LastActivity() = %v, want %v", s.LastActivity(), now)
	}
}

func TestRestore_RollsBackExtend(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New("id", "tok", "user", "", 4100, start, start.Add(30*time.Minute))

	prevExpiry := s.ExpiresAt()
	prevActivity := s.LastActivity()

	s.Extend(60*time.Minute, start.Add(5*time.Minute))
	s.Restore(prevExpiry, prevActivity)

	if !s.ExpiresAt().Equal(prevExpiry) {
		t.Fatalf("ExpiresAt() after Restore = %v, want %v", s.ExpiresAt(), prevExpiry)
	}
	if !s.LastActivity().Equal(prevActivity) {
		t.Fatalf("LastActivity() after Restore = %v, want %v", s.LastActivity(), prevActivity)
	}
}

func TestTokenEqual(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
		eq   bool
	}{
		{"equal", "secret-token-123", "secret-token-123", true},
		{"mismatch early", "xecret-token-123", "secret-token-123", false},
		{"mismatch late", "secret-token-12x", "secret-token-123", false},
		{"length mismatch shorter", "secret", "secret-token-123", false},
		{"length mismatch longer", "secret-token-123-extra", "secret-token-123", false},
		{"both empty", "", "", true},
		{"empty supplied", "", "secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenEqual(tt.got, tt.want); got != tt.eq {
				t.Fatalf("TokenEqual(%q, %q) = %v, want %v", tt.got, tt.want, got, tt.eq)
			}
		})
	}
}

func TestMemoryAllocator_ExtendSession(t *testing.T) {
	alloc := NewMemoryAllocator("127.0.0.1", 4100, 2*time.Hour)
	now := time.Now()

	s := alloc.Allocate("user-1", time.Hour, now)
	before, ok := alloc.ExpiresAt(s.Token())
	if !ok {
		t.Fatalf("ExpiresAt(%q) not found", s.Token())
	}

	ok, err := alloc.ExtendSession(context.Background(), s.Token(), 30*time.Minute)
	if err != nil || !ok {
		t.Fatalf("ExtendSession() = %v, %v, want true, nil", ok, err)
	}

	after, _ := alloc.ExpiresAt(s.Token())
	if want := before.Add(30 * time.Minute); !after.Equal(want) {
		t.Fatalf("authoritative expiry = %v, want %v", after, want)
	}

	// Unknown token is a definite false, not an error.
	ok, err = alloc.ExtendSession(context.Background(), "nope", 30*time.Minute)
	if err != nil || ok {
		t.Fatalf("ExtendSession(unknown) = %v, %v, want false, nil", ok, err)
	}
}

func TestMemoryAllocator_ExtendSessionCapped(t *testing.T) {
	alloc := NewMemoryAllocator("127.0.0.1", 4100, 2*time.Hour)
	now := time.Now()

	s := alloc.Allocate("user-1", time.Hour, now)
	before, _ := alloc.ExpiresAt(s.Token())

	// One hour of headroom remains. Asking for more is refused and the
	// authoritative expiry stays put.
	ok, err := alloc.ExtendSession(context.Background(), s.Token(), 90*time.Minute)
	if err != nil || ok {
		t.Fatalf("ExtendSession(over cap) = %v, %v, want false, nil", ok, err)
	}
	if after, _ := alloc.ExpiresAt(s.Token()); !after.Equal(before) {
		t.Fatalf("expiry moved to %v after refused extension, want %v", after, before)
	}

	// Exactly up to the cap is still allowed.
	ok, err = alloc.ExtendSession(context.Background(), s.Token(), time.Hour)
	if err != nil || !ok {
		t.Fatalf("ExtendSession(to cap) = %v, %v, want true, nil", ok, err)
	}
	if after, _ := alloc.ExpiresAt(s.Token()); !after.Equal(now.Add(2*time.Hour)) {
		t.Fatalf("expiry = %v, want %v", after, now.Add(2*time.Hour))
	}
}

func TestMemoryAllocator_PortsAreUnique(t *testing.T) {
	alloc := NewMemoryAllocator("127.0.0.1", 4100, time.Hour)
	now := time.Now()

	a := alloc.Allocate("u1", time.Hour, now)
	b := alloc.Allocate("u2", time.Hour, now)
	if a.Port() == b.Port() {
		t.Fatalf("two allocations share port %d", a.Port())
	}
	if a.Token() == b.Token() {
		t.Fatalf("two allocations share a token")
	}
}
