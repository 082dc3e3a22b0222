package server

import (
	"encoding/json"
	"net/http"
)

// API responses always carry the {ok:...} envelope the original clients
// parse; errors add an "error" message. /s/<token> responds in plain text
// instead (it is opened directly in browsers).

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
