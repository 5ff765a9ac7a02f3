// Package middleware provides production-grade HTTP middleware for
// session dashboard servers.
//
// This package includes:
//   - Prometheus metrics middleware
//   - OpenTelemetry distributed tracing middleware
//   - slog request logging middleware
//
// # Prometheus Metrics
//
// The Prometheus middleware collects per-request metrics:
//   - agentdeck_requests_total: Counter of requests by path and status class
//   - agentdeck_request_duration_seconds: Request duration histogram by path
//   - agentdeck_active_sessions: Gauge of running session servers
//   - agentdeck_heartbeats_total: Counter of gateway heartbeats by outcome
//
//	srv, _ := server.New(server.Config{
//	    Middleware: []func(http.Handler) http.Handler{
//	        middleware.Prometheus(middleware.WithNamespace("myagent")),
//	    },
//	})
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.Handler())
//	go http.ListenAndServe(":9090", nil)
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware traces every request, carrying the span
// through the request context so the data-source and update callbacks
// inherit it:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-agent"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/api/health"
//	    }),
//	)
package middleware
