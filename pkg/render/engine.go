// Package render turns a session, a schema, and a resolved resource
// bundle into the dashboard's HTML document.
//
// Rendering is pluggable: the engine holds an ordered list of Renderer
// implementations and picks the first one that declares itself capable
// for a given context. The built-in document renderer is the guaranteed
// fallback, so a renderer is always found. Any failure along the way is
// converted into a self-contained error page; the engine never
// propagates an error (or a panic) to the HTTP layer.
package render

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentdeck/agentdeck/pkg/resources"
	"github.com/agentdeck/agentdeck/pkg/schema"
	"github.com/agentdeck/agentdeck/pkg/session"
)

// Data is the render context for one request: session + schema +
// resolved resources + a per-request security nonce + the initial
// application data. It exists for one request's lifetime.
type Data struct {
	Session *session.Session
	Schema  *schema.Schema

	// Bundle is filled in by the engine before renderer selection.
	Bundle *resources.Bundle

	// Nonce is the per-request CSP nonce. The engine generates one if
	// the caller did not supply it.
	Nonce string

	// Initial is the data snapshot embedded into the document.
	Initial any

	// APIBase is the path prefix the client calls back on.
	APIBase string

	// PollInterval is the client's data refresh interval (0 = disabled).
	PollInterval time.Duration
}

// Renderer produces an HTML document from a render context.
type Renderer interface {
	// CanRender reports whether this renderer handles the given context.
	CanRender(d *Data) bool

	// Render produces the document.
	Render(d *Data) (string, error)
}

// Engine orchestrates resolution, renderer selection, and failure
// handling. The renderer list is owned by the engine instance; multiple
// engines in one process do not share registration state.
type Engine struct {
	resolver  *resources.Resolver
	renderers []Renderer
	fallback  Renderer
	log       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// WithRenderer registers an additional renderer ahead of the fallback.
func WithRenderer(r Renderer) EngineOption {
	return func(e *Engine) {
		e.renderers = append(e.renderers, r)
	}
}

// NewEngine creates an Engine whose fallback is the built-in document
// renderer.
func NewEngine(resolver *resources.Resolver, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver: resolver,
		fallback: &documentRenderer{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.log = e.log.With("component", "render")
	return e
}

// Register appends a renderer. Registration order is selection order;
// the built-in fallback is always consulted last.
func (e *Engine) Register(r Renderer) {
	e.renderers = append(e.renderers, r)
}

// Render resolves resources, completes the context, selects a renderer,
// and renders. It always returns a usable HTML document: on any failure
// it falls back to a generated error page.
func (e *Engine) Render(d Data) string {
	html, err := e.render(&d)
	if err != nil {
		e.log.Error("render failed, serving error page", "err", err)
		return ErrorPage(err, "/", d.APIBase+"/health")
	}
	return html
}

func (e *Engine) render(d *Data) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render: panic: %v", r)
		}
	}()

	if d.Schema == nil {
		return "", fmt.Errorf("render: nil schema")
	}
	if d.Bundle == nil {
		d.Bundle = e.resolver.Resolve(d.Schema)
	}
	if d.Nonce == "" {
		d.Nonce = NewNonce()
	}

	r := e.selectRenderer(d)
	return r.Render(d)
}

func (e *Engine) selectRenderer(d *Data) Renderer {
	for _, r := range e.renderers {
		if r.CanRender(d) {
			return r
		}
	}
	return e.fallback
}

// NewNonce generates a fresh per-request CSP nonce.
func NewNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("render: nonce: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
