package server

import (
	"log"
	"net/http"
	"strconv"
	"time"
)

// readlink TTL bounds, in seconds. If omitted or out of range the
// original clamped to one minute .. one hour, defaulting to five minutes.
const (
	readlinkTTLDefault = 300
	readlinkTTLMin     = 60
	readlinkTTLMax     = 3600
)

func secondsDuration(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func clampTTLSeconds(n int) int {
	if n <= 0 {
		return readlinkTTLDefault
	}
	if n < readlinkTTLMin {
		return readlinkTTLMin
	}
	if n > readlinkTTLMax {
		return readlinkTTLMax
	}
	return n
}

// handleReadlink returns a freshly signed GET URL for a known key.
func (s *Server) handleReadlink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if identityFrom(r) == "" {
		writeErr(w, http.StatusUnauthorized, "x-mixtli-token required")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeErr(w, http.StatusBadRequest, "key required")
		return
	}

	ttl, _ := strconv.Atoi(r.URL.Query().Get("ttl"))
	ttlSec := clampTTLSeconds(ttl)

	url, err := s.store.SignGet(r.Context(), key, secondsDuration(ttlSec))
	if err != nil {
		rid := RequestIDFromContext(r.Context())
		log.Printf("rid=%s msg=sign_get_failed err=%v", rid, err)
		writeErr(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"url":       url,
		"key":       key,
		"expiresIn": ttlSec,
	})
}
