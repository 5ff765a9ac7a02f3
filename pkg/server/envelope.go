package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the uniform response shape for all /api/* JSON endpoints.
// Exactly one of Data and Error is set.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, Envelope{Success: false, Error: msg})
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
