// Package server hosts a session-scoped dashboard over HTTP. Each Server
// instance is bound to exactly one session: it listens on the session's
// port, authenticates requests against the session's token, and shuts down
// with the session.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdeck/agentdeck/pkg/gateway"
	"github.com/agentdeck/agentdeck/pkg/middleware"
	"github.com/agentdeck/agentdeck/pkg/render"
	"github.com/agentdeck/agentdeck/pkg/resources"
	"github.com/agentdeck/agentdeck/pkg/schema"
	"github.com/agentdeck/agentdeck/pkg/session"
)

// State is a Server lifecycle phase. Transitions only move forward:
// constructed, starting, running, stopping, stopped.
type State int32

const (
	StateConstructed State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Server serves one session's dashboard.
type Server struct {
	cfg      Config
	sess     *session.Session
	schema   *schema.Schema
	resolver *resources.Resolver
	engine   *render.Engine
	sanitize sanitizer
	log      *slog.Logger

	// mu serializes Start and Stop. state stays atomic so State() is
	// lock-free for observers.
	mu    sync.Mutex
	state atomic.Int32

	ln        net.Listener
	httpSrv   *http.Server
	registrar *gateway.Registrar
	startedAt time.Time

	pollStop chan struct{}
	pollDone chan struct{}

	plugins     []Plugin
	extraRoutes []routeDef
	extraMW     []func(http.Handler) http.Handler
}

// New builds a server in the constructed state. Register plugins, routes,
// and middleware before calling Start.
func New(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, ErrMissingSession
	}
	if cfg.Schema == nil {
		return nil, ErrMissingSchema
	}
	if cfg.Resolver == nil {
		return nil, ErrMissingResolver
	}
	if cfg.DataSource == nil {
		return nil, ErrMissingDataSource
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("server: invalid schema: %w", err)
	}
	cfg = DefaultConfig(cfg)

	s := &Server{
		cfg:      cfg,
		sess:     cfg.Session,
		schema:   cfg.Schema,
		resolver: cfg.Resolver,
		engine:   cfg.Engine,
		sanitize: sanitizer{maxStringLen: cfg.MaxStringLen},
		log:      cfg.Logger.With("component", "server", "session", cfg.Session.ID()),
		pollStop: make(chan struct{}),
		pollDone: make(chan struct{}),
	}
	if s.engine == nil {
		s.engine = render.NewEngine(cfg.Resolver, render.WithLogger(cfg.Logger))
	}
	return s, nil
}

// State returns the current lifecycle phase.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Session returns the session this server is scoped to.
func (s *Server) Session() *session.Session {
	return s.sess
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start binds the session's port and begins serving. Resource validation
// failures are logged but do not block startup; bind failures are
// classified so callers can distinguish a busy port from a permission
// problem. Start may be called once.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.CompareAndSwap(int32(StateConstructed), int32(StateStarting)) {
		return fmt.Errorf("%w: state is %s", ErrAlreadyStarted, s.State())
	}

	if v := s.resolver.Validate(ctx, s.schema); !v.Valid {
		s.log.Warn("schema references missing resources", "missing", v.Missing)
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.sess.Port()))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.state.Store(int32(StateStopped))
		return classifyBindError(addr, err)
	}
	s.ln = ln
	s.startedAt = time.Now()

	s.httpSrv = &http.Server{
		Handler:      s.buildRouter(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	go s.pollLoop()

	if s.cfg.ProxyMode {
		hosts := s.cfg.HostResolver
		if hosts == nil {
			hosts = session.StaticHost(s.cfg.Host)
		}
		s.registrar = gateway.New(s.cfg.Gateway, hosts, s.sess.Port(), s.gatewayMetadata)
		// Registration must not delay serving; the registrar retries on
		// its heartbeat schedule.
		go s.registrar.Start(ctx)
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve loop exited", "error", err)
		}
	}()

	middleware.RecordSessionStart()
	s.state.Store(int32(StateRunning))
	s.log.Info("server started",
		"addr", ln.Addr().String(),
		"user", s.sess.UserID(),
		"expires_at", s.sess.ExpiresAt(),
		"proxy_mode", s.cfg.ProxyMode)
	return nil
}

// Stop shuts the server down: the poll loop stops, plugins clean up, the
// gateway registrar halts its heartbeat, and in-flight requests drain.
// Stop is idempotent and safe to call on a server that never started.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CompareAndSwap(int32(StateConstructed), int32(StateStopped)) {
		return nil
	}
	// Start holds the same lock until it lands in running or stopped, so
	// the starting state is never observed here.
	if !s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return nil
	}

	close(s.pollStop)
	<-s.pollDone

	for _, p := range s.plugins {
		if err := p.Cleanup(ctx); err != nil {
			s.log.Error("plugin cleanup failed", "plugin", p.Name(), "error", err)
		}
	}

	if s.registrar != nil {
		s.registrar.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	err := s.httpSrv.Shutdown(shutdownCtx)

	middleware.RecordSessionStop()
	s.state.Store(int32(StateStopped))
	s.log.Info("server stopped")
	if err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// buildRouter assembles the middleware pipeline and routes. Order matters:
// instrumentation first, then security headers, body handling, auth, and
// finally any configured extras.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(s.cfg.Logger))
	if s.cfg.EnableMetrics {
		r.Use(middleware.Prometheus())
	}
	if s.cfg.EnableTracing {
		r.Use(middleware.OpenTelemetry())
	}
	r.Use(s.securityHeaders)
	r.Use(s.requestBody)
	r.Use(s.auth)
	for _, mw := range append(s.cfg.Middleware, s.extraMW...) {
		r.Use(mw)
	}

	r.Get("/", s.handleDocument)

	// The canonical stylesheet route is registered before the wildcard
	// so the base file is always checked first. Wildcards rather than
	// single-segment params let theme files live in subdirectories.
	r.Get(resources.StylePathPrefix+s.resolver.BaseStyleName(), s.handleBaseStyle)
	r.Get(resources.StylePathPrefix+"*", s.handleStyle)
	r.Get(resources.BundleScriptPath, s.handleBundle)
	r.Get(resources.ScriptPathPrefix+"*", s.handleScript)

	r.Route("/api", func(api chi.Router) {
		api.Get("/data", s.handleData)
		api.Post("/update", s.handleUpdate)
		api.Post("/extend-session", s.handleExtend)
		api.Get("/health", s.handleHealth)
	})

	for _, rt := range s.extraRoutes {
		r.Method(rt.method, rt.pattern, rt.handler)
	}
	return r
}

// pollLoop is the server-side change detection tick. It re-reads the data
// source so failures surface in logs between client polls.
func (s *Server) pollLoop() {
	defer close(s.pollDone)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.pollStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PollInterval)
			if _, err := s.cfg.DataSource(ctx, s.sess.UserID()); err != nil {
				s.log.Warn("data source poll failed", "error", err)
			}
			cancel()
		}
	}
}

// gatewayMetadata is attached to every gateway registration and heartbeat.
func (s *Server) gatewayMetadata() map[string]any {
	return map[string]any{
		"sessionId": s.sess.ID(),
		"userId":    s.sess.UserID(),
		"expiresAt": s.sess.ExpiresAt().UTC().Format(time.RFC3339),
		"state":     s.State().String(),
	}
}

// classifyBindError maps listener errors onto the package sentinels.
func classifyBindError(addr string, err error) error {
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		return fmt.Errorf("%w: %s", ErrPortInUse, addr)
	case errors.Is(err, syscall.EACCES):
		return fmt.Errorf("%w: %s", ErrPortPermission, addr)
	default:
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
}
