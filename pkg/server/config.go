package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/agentdeck/agentdeck/pkg/gateway"
	"github.com/agentdeck/agentdeck/pkg/render"
	"github.com/agentdeck/agentdeck/pkg/resources"
	"github.com/agentdeck/agentdeck/pkg/schema"
	"github.com/agentdeck/agentdeck/pkg/session"
)

// DataSource fetches the current dashboard data for a user. It is called on
// every document render and every GET /api/data request.
type DataSource func(ctx context.Context, userID string) (any, error)

// UpdateFunc applies a user-initiated state change. The action string comes
// from the request body and the data map has already been sanitized.
type UpdateFunc func(ctx context.Context, action string, data map[string]any, userID string) error

// Extension bounds for POST /api/extend-session, in minutes.
const (
	MinExtensionMinutes = 5
	MaxExtensionMinutes = 120
)

const (
	defaultBindHost        = "127.0.0.1"
	defaultBodyLimit       = 1 << 20 // 1 MiB
	defaultMaxStringLen    = 10000
	defaultPollInterval    = 10 * time.Second
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Config configures a session-scoped dashboard server. Session, Schema,
// Resolver, and DataSource are required; everything else has working
// defaults applied by DefaultConfig.
type Config struct {
	// Session is the session this server is scoped to. The server binds to
	// the session's port and authenticates requests against its token.
	Session *session.Session

	// Schema describes the dashboard to render.
	Schema *schema.Schema

	// Resolver maps the schema to styles and scripts.
	Resolver *resources.Resolver

	// Engine renders HTML documents. Built from Resolver when nil.
	Engine *render.Engine

	// DataSource supplies the current dashboard data.
	DataSource DataSource

	// OnUpdate handles POST /api/update actions. When nil, updates are
	// accepted and discarded.
	OnUpdate UpdateFunc

	// Extender propagates session extensions to the session's owner. When
	// nil, extensions apply locally only.
	Extender session.Extender

	// Host is the interface to bind. Defaults to loopback.
	Host string

	// BodyLimit caps request body size in bytes.
	BodyLimit int64

	// MaxStringLen caps string values in sanitized update payloads.
	MaxStringLen int

	// PollInterval is the server-side change detection tick.
	PollInterval time.Duration

	// ProxyMode enables gateway registration and heartbeats.
	ProxyMode bool

	// Gateway configures the registrar. Only used in proxy mode.
	Gateway gateway.Config

	// HostResolver resolves the host to advertise to the gateway. Only used
	// in proxy mode.
	HostResolver session.HostResolver

	// Middleware is appended to the standard pipeline, after security
	// headers, body handling, and auth.
	Middleware []func(http.Handler) http.Handler

	// EnableMetrics adds Prometheus request metrics to the pipeline.
	EnableMetrics bool

	// EnableTracing adds OpenTelemetry request spans to the pipeline.
	EnableTracing bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Logger receives server logs. Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultConfig fills in zero-valued optional fields.
func DefaultConfig(cfg Config) Config {
	if cfg.Host == "" {
		cfg.Host = defaultBindHost
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = defaultBodyLimit
	}
	if cfg.MaxStringLen <= 0 {
		cfg.MaxStringLen = defaultMaxStringLen
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}
