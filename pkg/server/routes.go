package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agentdeck/agentdeck/pkg/render"
	"github.com/agentdeck/agentdeck/pkg/resources"
)

const (
	cssContentType = "text/css; charset=utf-8"
	jsContentType  = "application/javascript; charset=utf-8"
)

// handleDocument renders the full dashboard page. Data source failures
// produce the error page rather than a blank response.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	initial, err := s.cfg.DataSource(ctx, s.sess.UserID())
	if err != nil {
		s.log.Error("data source failed during render", "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, render.ErrorPage(err, "/", "/api/health"))
		return
	}

	html := s.engine.Render(render.Data{
		Session:      s.sess,
		Schema:       s.schema,
		Nonce:        nonceFrom(ctx),
		Initial:      initial,
		APIBase:      "/api",
		PollInterval: s.schema.PollInterval(),
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// handleBaseStyle serves the canonical stylesheet. It is registered ahead
// of the named style route so the base file always resolves first.
func (s *Server) handleBaseStyle(w http.ResponseWriter, r *http.Request) {
	s.serveStyle(w, r, s.resolver.BaseStyleName())
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	s.serveStyle(w, r, chi.URLParam(r, "*"))
}

func (s *Server) serveStyle(w http.ResponseWriter, r *http.Request, name string) {
	css, err := s.resolver.Style(r.Context(), name)
	if err != nil {
		s.styleNotFound(w, name, err)
		return
	}
	w.Header().Set("Content-Type", cssContentType)
	w.Write(css)
}

// styleNotFound answers 404 with a CSS comment body so a <link> to a
// missing sheet degrades silently instead of breaking the page.
func (s *Server) styleNotFound(w http.ResponseWriter, name string, err error) {
	if !errors.Is(err, resources.ErrNotFound) {
		s.log.Error("stylesheet read failed", "file", name, "error", err)
	}
	w.Header().Set("Content-Type", cssContentType)
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, "/* stylesheet not found: %s */\n", name)
}

// handleBundle serves the concatenated script bundle. Missing member files
// are skipped inside BundleScripts, so this endpoint always succeeds.
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	bundle := s.resolver.BundleScripts(r.Context(), s.schema)
	w.Header().Set("Content-Type", jsContentType)
	fmt.Fprint(w, bundle)
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	js, err := s.resolver.Script(r.Context(), name)
	if err != nil {
		if !errors.Is(err, resources.ErrNotFound) {
			s.log.Error("script read failed", "file", name, "error", err)
		}
		w.Header().Set("Content-Type", jsContentType)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "/* script not found: %s */\n", name)
		return
	}
	w.Header().Set("Content-Type", jsContentType)
	w.Write(js)
}

// handleData returns the current dashboard data for client polling.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data, err := s.cfg.DataSource(r.Context(), s.sess.UserID())
	if err != nil {
		s.log.Error("data source failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load data")
		return
	}
	writeSuccess(w, data)
}

// handleUpdate applies a user action. The payload is sanitized before it
// reaches the update callback.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())

	action, ok := body["action"].(string)
	if !ok || action == "" {
		writeError(w, http.StatusBadRequest, "Missing or invalid action")
		return
	}

	var data map[string]any
	if raw, ok := body["data"].(map[string]any); ok {
		data = s.sanitize.Map(raw)
	} else {
		data = map[string]any{}
	}

	if s.cfg.OnUpdate != nil {
		if err := s.cfg.OnUpdate(r.Context(), action, data, s.sess.UserID()); err != nil {
			s.log.Error("update failed", "action", action, "error", err)
			writeError(w, http.StatusInternalServerError, "Update failed")
			return
		}
	}

	s.log.Info("update applied", "action", action)
	writeSuccess(w, map[string]any{"action": action})
}

// handleExtend extends the session lifetime. The local extension and the
// owner-side extension succeed or fail together: if propagation fails, the
// local session is rolled back to its previous expiry.
func (s *Server) handleExtend(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())

	minutes, ok := body["minutes"].(float64)
	if !ok || minutes < MinExtensionMinutes || minutes > MaxExtensionMinutes {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("minutes must be between %d and %d", MinExtensionMinutes, MaxExtensionMinutes))
		return
	}

	now := time.Now()
	if !s.sess.Active(now) {
		writeError(w, http.StatusGone, "Session already expired")
		return
	}

	prev := s.sess.Snapshot()
	// Fractional minutes are valid; convert in float space so 5.5 does
	// not truncate to 5.
	d := time.Duration(minutes * float64(time.Minute))
	newExpiry := s.sess.Extend(d, now)

	if s.cfg.Extender != nil {
		ok, err := s.cfg.Extender.ExtendSession(r.Context(), s.sess.Token(), d)
		if err != nil || !ok {
			s.sess.Restore(prev.ExpiresAt, prev.LastActivity)
			s.log.Error("extension propagation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to persist session extension")
			return
		}
	}

	s.log.Info("session extended", "minutes", minutes, "expires_at", newExpiry)
	writeSuccess(w, map[string]any{
		"expiresAt": newExpiry.UTC().Format(time.RFC3339),
	})
}

// handleHealth reports liveness without requiring a token.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"status":  "ok",
		"title":   s.schema.Title,
		"themes":  s.resolver.ActiveThemes(s.schema),
		"plugins": s.PluginNames(),
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}
