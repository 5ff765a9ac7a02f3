package server

import (
	"context"
	"fmt"
	"net/http"
)

// Plugin extends a server with routes and middleware. Initialize runs when
// the plugin is registered and may call AddRoute and AddMiddleware on the
// server; Cleanup runs during Stop in registration order.
type Plugin interface {
	Name() string
	Initialize(ctx context.Context, s *Server) error
	Cleanup(ctx context.Context) error
}

type routeDef struct {
	method  string
	pattern string
	handler http.HandlerFunc
}

// RegisterPlugin initializes and attaches a plugin. Plugins must be
// registered before Start; the routes and middleware they add are wired
// when the server builds its router.
func (s *Server) RegisterPlugin(ctx context.Context, p Plugin) error {
	if s.state.Load() != int32(StateConstructed) {
		return fmt.Errorf("%w: cannot register plugin %q after start", ErrAlreadyStarted, p.Name())
	}
	if err := p.Initialize(ctx, s); err != nil {
		return fmt.Errorf("initializing plugin %q: %w", p.Name(), err)
	}
	s.plugins = append(s.plugins, p)
	s.log.Info("plugin registered", "plugin", p.Name())
	return nil
}

// AddRoute registers an authenticated route under the server's router.
// Routes added after Start are ignored with a warning.
func (s *Server) AddRoute(method, pattern string, h http.HandlerFunc) {
	if s.state.Load() != int32(StateConstructed) {
		s.log.Warn("route added after start, ignored", "method", method, "pattern", pattern)
		return
	}
	s.extraRoutes = append(s.extraRoutes, routeDef{method: method, pattern: pattern, handler: h})
}

// AddMiddleware appends middleware to the pipeline, after the standard
// security, body, and auth layers. Middleware added after Start is ignored
// with a warning.
func (s *Server) AddMiddleware(mw func(http.Handler) http.Handler) {
	if s.state.Load() != int32(StateConstructed) {
		s.log.Warn("middleware added after start, ignored")
		return
	}
	s.extraMW = append(s.extraMW, mw)
}

// PluginNames returns the names of registered plugins in registration order.
func (s *Server) PluginNames() []string {
	names := make([]string, len(s.plugins))
	for i, p := range s.plugins {
		names[i] = p.Name()
	}
	return names
}
