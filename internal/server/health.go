package server

import (
	"context"
	"net/http"
	"time"
)

// handleSalud is the original health path: plain "ok", nothing probed.
func (s *Server) handleSalud(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type componentHealth struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMs float64 `json:"latency_ms,omitempty"`
}

// handleHealth probes the database and reports component status. The
// object store is not probed per request: signing is pure computation and
// a broken store surfaces on first use anyway.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]componentHealth{}
	status := "healthy"
	code := http.StatusOK

	start := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		components["database"] = componentHealth{Status: "down", Message: err.Error()}
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		components["database"] = componentHealth{
			Status:    "up",
			LatencyMs: float64(time.Since(start).Milliseconds()),
		}
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.cfg.Version,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}

// handleMetrics exposes the counter snapshot as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, GetMetrics().Snapshot())
}
