package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/pkg/render"
	"github.com/agentdeck/agentdeck/pkg/session"
)

type ctxKey int

const (
	nonceKey ctxKey = iota
	bodyKey
)

// nonceFrom returns the per-request CSP nonce set by the security headers
// middleware.
func nonceFrom(ctx context.Context) string {
	n, _ := ctx.Value(nonceKey).(string)
	return n
}

// bodyFrom returns the decoded JSON body set by the body middleware. Nil
// for requests without a body.
func bodyFrom(ctx context.Context) map[string]any {
	m, _ := ctx.Value(bodyKey).(map[string]any)
	return m
}

// securityHeaders generates a fresh CSP nonce per request, attaches it to
// the context, and sets the security response headers. The nonce allows only
// the server's own inline bootstrap and script tags to execute.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce := render.NewNonce()

		h := w.Header()
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' 'nonce-"+nonce+"'; style-src 'self' 'unsafe-inline'; connect-src 'self'; img-src 'self' data:; font-src 'self';")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), nonceKey, nonce)))
	})
}

// requestBody limits and decodes JSON request bodies for mutating methods.
// The decoded map is attached to the context so handlers never touch the
// raw body. Malformed JSON gets a 400 envelope; a client that disconnects
// mid-read gets no response at all.
func (s *Server) requestBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			next.ServeHTTP(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.BodyLimit)
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			// Read failure means the client went away. Responding would
			// write to a dead connection.
			s.log.Debug("request body read aborted", "path", r.URL.Path, "error", err)
			return
		}

		body := map[string]any{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid JSON body")
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey, body)))
	})
}

// auth validates the session token on every request except static assets
// and the health endpoint. A missing token is 401, a wrong one 403. Token
// comparison is constant-time. User-initiated requests refresh the
// session's last-activity timestamp; background polling does not.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := requestToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}
		if !session.TokenEqual(token, s.sess.Token()) {
			s.log.Warn("rejected request with invalid token", "path", r.URL.Path, "remote", r.RemoteAddr)
			writeError(w, http.StatusForbidden, "Invalid token")
			return
		}

		if userInitiated(r) {
			s.sess.Touch(time.Now())
		}
		next.ServeHTTP(w, r)
	})
}

func publicPath(p string) bool {
	return p == "/api/health" || strings.HasPrefix(p, "/assets/")
}

// requestToken extracts the session token from the token query parameter or
// an Authorization bearer header.
func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// userInitiated reports whether a request reflects deliberate user activity
// rather than background polling.
func userInitiated(r *http.Request) bool {
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch || r.Method == http.MethodDelete {
		return true
	}
	return strings.Contains(r.URL.Path, "update") || strings.Contains(r.URL.Path, "extend")
}
