package server

import (
	"log"
	"net/http"
)

// listMax caps how many cloud objects one listing returns.
const listMax = 200

type listedFile struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url,omitempty"`
}

// handleList lists objects under the cloud prefix, each enriched with a
// signed GET URL for previews. Signing failures degrade to an entry
// without a URL rather than failing the whole listing.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if identityFrom(r) == "" {
		writeErr(w, http.StatusUnauthorized, "x-mixtli-token required")
		return
	}

	ctx := r.Context()

	objects, err := s.store.ListCloud(ctx, listMax)
	if err != nil {
		rid := RequestIDFromContext(ctx)
		log.Printf("rid=%s msg=list_failed err=%v", rid, err)
		writeErr(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	files := make([]listedFile, 0, len(objects))
	for _, obj := range objects {
		f := listedFile{Key: obj.Key, Name: obj.Name, Size: obj.Size}
		if url, err := s.store.SignGet(ctx, obj.Key, s.cfg.ListGetTTL); err == nil {
			f.URL = url
		}
		files = append(files, f)
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "files": files})
}
