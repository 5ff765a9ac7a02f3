package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/pkg/session"
)

type capturedRegistration struct {
	mu       sync.Mutex
	payloads []Registration
}

func (c *capturedRegistration) add(r Registration) {
	c.mu.Lock()
	c.payloads = append(c.payloads, r)
	c.mu.Unlock()
}

func (c *capturedRegistration) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *capturedRegistration) last() Registration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloads[len(c.payloads)-1]
}

func fakeGateway(t *testing.T, status int) (*httptest.Server, *capturedRegistration) {
	t.Helper()

	captured := &capturedRegistration{}
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/register-server" {
			t.Errorf("gateway got path %q, want /register-server", r.URL.Path)
		}
		var reg Registration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			t.Errorf("decode registration: %v", err)
		}
		captured.add(reg)
		w.WriteHeader(status)
	}))
	t.Cleanup(gw.Close)
	return gw, captured
}

func TestRegistrar_InitialRegistration(t *testing.T) {
	gw, captured := fakeGateway(t, http.StatusOK)

	r := New(Config{
		BaseURL:           gw.URL,
		ServerName:        "deck-abc",
		HeartbeatInterval: time.Hour, // no ticks during the test
	}, session.StaticHost("10.0.0.5"), 4123, func() map[string]any {
		return map[string]any{"schemaTitle": "Tasks"}
	})

	r.Start(context.Background())
	defer r.Stop()

	if captured.count() != 1 {
		t.Fatalf("registrations = %d, want 1", captured.count())
	}

	reg := captured.last()
	if reg.ServerName != "deck-abc" {
		t.Fatalf("ServerName = %q, want %q", reg.ServerName, "deck-abc")
	}
	if reg.Backend.Host != "10.0.0.5" || reg.Backend.Port != 4123 || reg.Backend.Type != "http" {
		t.Fatalf("Backend = %+v, want http 10.0.0.5:4123", reg.Backend)
	}
	if reg.Metadata["schemaTitle"] != "Tasks" {
		t.Fatalf("Metadata[schemaTitle] = %v, want Tasks", reg.Metadata["schemaTitle"])
	}
	for _, key := range []string{"pid", "uptime", "timestamp", "instanceId"} {
		if _, ok := reg.Metadata[key]; !ok {
			t.Fatalf("Metadata missing %q: %v", key, reg.Metadata)
		}
	}
}

func TestRegistrar_HeartbeatRepeats(t *testing.T) {
	gw, captured := fakeGateway(t, http.StatusOK)

	r := New(Config{
		BaseURL:           gw.URL,
		ServerName:        "deck-hb",
		HeartbeatInterval: 20 * time.Millisecond,
	}, session.StaticHost("127.0.0.1"), 4100, nil)

	r.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for captured.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("got %d registrations before deadline, want >= 3", captured.count())
		case <-time.After(10 * time.Millisecond):
		}
	}
	r.Stop()

	// No further registrations after Stop.
	n := captured.count()
	time.Sleep(60 * time.Millisecond)
	if captured.count() != n {
		t.Fatalf("registrations continued after Stop: %d -> %d", n, captured.count())
	}
}

func TestRegistrar_GatewayFailureIsNotFatal(t *testing.T) {
	gw, _ := fakeGateway(t, http.StatusBadGateway)

	r := New(Config{
		BaseURL:           gw.URL,
		ServerName:        "deck-err",
		HeartbeatInterval: time.Hour,
	}, session.StaticHost("127.0.0.1"), 4100, nil)

	// Start must not panic or block on a failing gateway.
	r.Start(context.Background())
	r.Stop()
}

func TestRegistrar_StopWithoutStart(t *testing.T) {
	r := New(Config{BaseURL: "http://127.0.0.1:1", ServerName: "x"},
		session.StaticHost("h"), 1, nil)

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop() blocked on a registrar that never started")
	}
}
