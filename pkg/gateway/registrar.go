// Package gateway announces a session server to an external reverse-proxy
// gateway and keeps that registration alive with a fixed-interval
// heartbeat.
//
// The gateway is the authority on freshness: this package only pushes
// registrations. A failed registration is never fatal to the session -
// it is logged, the circuit breaker opens after repeated failures so a
// dead gateway is skipped cheaply, and the next tick retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/agentdeck/agentdeck/pkg/middleware"
	"github.com/agentdeck/agentdeck/pkg/session"
)

// registerPath is the gateway endpoint registrations are posted to.
const registerPath = "/register-server"

// Config configures a Registrar.
type Config struct {
	// BaseURL is the gateway's base URL, e.g. "http://gateway:8443".
	BaseURL string

	// ServerName is the name this session registers under.
	ServerName string

	// HeartbeatInterval is how often the registration is re-posted
	// (default 30s).
	HeartbeatInterval time.Duration

	// Client is the HTTP client for outbound calls. Defaults to a
	// client with a 10s timeout.
	Client *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Backend is the address the gateway routes external traffic to.
type Backend struct {
	Type string `json:"type"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Registration is the payload posted to the gateway. It is re-sent on
// every heartbeat tick with refreshed metadata.
type Registration struct {
	ServerName string         `json:"serverName"`
	Backend    Backend        `json:"backend"`
	Metadata   map[string]any `json:"metadata"`
}

// MetadataFunc supplies registration metadata (schema title, feature
// flags). Uptime, timestamp, pid, and instance id are added by the
// registrar itself.
type MetadataFunc func() map[string]any

// Registrar owns the heartbeat timer for one session server. Stop always
// cancels the timer; a registrar must not outlive its server.
type Registrar struct {
	cfg        Config
	hosts      session.HostResolver
	port       int
	meta       MetadataFunc
	breaker    *gobreaker.CircuitBreaker
	log        *slog.Logger
	instanceID string

	startedAt time.Time
	started   atomic.Bool
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a Registrar for a backend listening on port. The host the
// gateway reaches the backend at is asked of the resolver on every
// registration, since that answer depends on deployment topology.
func New(cfg Config, hosts session.HostResolver, port int, meta MetadataFunc) *Registrar {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Registrar{
		cfg:   cfg,
		hosts: hosts,
		port:  port,
		meta:  meta,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "gateway-" + cfg.ServerName,
			MaxRequests: 1,
			Timeout:     2 * cfg.HeartbeatInterval,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		log:        log.With("component", "gateway", "server", cfg.ServerName),
		instanceID: uuid.NewString(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start performs the initial registration and schedules heartbeats. The
// initial registration's failure is a warning, not an error: the session
// server keeps running and the next tick retries.
func (r *Registrar) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.startedAt = time.Now()

	if err := r.register(ctx); err != nil {
		r.log.Warn("initial gateway registration failed", "err", err)
	}

	go r.heartbeatLoop()
}

// Stop cancels the heartbeat timer. Safe to call more than once, and
// safe to call on a registrar that never started; returns after the
// heartbeat goroutine has exited.
func (r *Registrar) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	if r.started.Load() {
		<-r.done
	}
}

func (r *Registrar) heartbeatLoop() {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.HeartbeatInterval)
			err := r.register(ctx)
			cancel()

			middleware.RecordHeartbeat(err == nil)
			if err != nil {
				r.log.Warn("gateway heartbeat failed", "err", err)
			}
		}
	}
}

// register posts the registration payload through the circuit breaker.
func (r *Registrar) register(ctx context.Context) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.post(ctx)
	})
	if err != nil {
		return fmt.Errorf("gateway: register %s: %w", r.cfg.ServerName, err)
	}
	return nil
}

func (r *Registrar) post(ctx context.Context) error {
	host, err := r.hosts.BackendHost(ctx)
	if err != nil {
		return fmt.Errorf("resolve backend host: %w", err)
	}

	meta := map[string]any{}
	if r.meta != nil {
		for k, v := range r.meta() {
			meta[k] = v
		}
	}
	meta["instanceId"] = r.instanceID
	meta["pid"] = os.Getpid()
	meta["uptime"] = time.Since(r.startedAt).Round(time.Second).String()
	meta["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(Registration{
		ServerName: r.cfg.ServerName,
		Backend:    Backend{Type: "http", Host: host, Port: r.port},
		Metadata:   meta,
	})
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.BaseURL+registerPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway responded %d", resp.StatusCode)
	}
	return nil
}
