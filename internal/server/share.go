package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
)

// handleShare resolves /s/<token>. Live links redirect to a short-lived
// signed GET; expired links answer 410 and are reclaimed immediately
// instead of waiting for the next sweep. Responses are plain text because
// this URL is opened directly in browsers.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimPrefix(r.URL.Path, "/s/")
	if token == "" || strings.Contains(token, "/") {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()

	link, err := s.registry.GetLink(ctx, token)
	if err == ErrNotFound {
		http.Error(w, "link not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !time.Now().Before(link.ExpiresAt) {
		s.reclaimLink(ctx, link)
		GetMetrics().RecordLinkGone()
		http.Error(w, "link expired", http.StatusGone)
		return
	}

	url, err := s.store.SignGet(ctx, link.Key, s.cfg.ShareGetTTL)
	if err != nil {
		rid := RequestIDFromContext(ctx)
		log.Printf("rid=%s msg=sign_get_failed token=%s err=%v", rid, token, err)
		http.Error(w, "could not generate link", http.StatusInternalServerError)
		return
	}

	GetMetrics().RecordLinkResolved()
	http.Redirect(w, r, url, http.StatusFound)
}

// reclaimLink is the read-triggered cleanup path: best effort, same
// tolerate-and-purge policy as the sweep. Deletion is idempotent, so
// racing the cleaner over the same row is safe.
func (s *Server) reclaimLink(ctx context.Context, link ShareLink) {
	if err := s.store.Delete(ctx, link.Key); err != nil {
		GetMetrics().RecordObjectDeleteError()
		log.Printf("service=share msg=object_delete_failed key=%s err=%v", link.Key, err)
	}
	if err := s.registry.DeleteLink(ctx, link.Token); err != nil {
		log.Printf("service=share msg=row_delete_failed token=%s err=%v", link.Token, err)
	}
}
