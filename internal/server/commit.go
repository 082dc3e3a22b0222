package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type commitReq struct {
	Mode   string `json:"mode"`
	Key    string `json:"key"`
	FileID string `json:"fileId"`
	Size   int64  `json:"size"`
}

// handleCommit persists the registry row for an object the client claims
// to have uploaded, and charges the wallet for cloud files.
//
// The declared size is validated but not verified against the stored
// object (no HEAD-after-PUT); none of the deployed variants did, and the
// gap is preserved deliberately.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := identityFrom(r)
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "x-mixtli-token required")
		return
	}

	var req commitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}
	if req.Mode != "link" && req.Mode != "cloud" {
		writeErr(w, http.StatusBadRequest, "mode must be link or cloud")
		return
	}
	if req.Key == "" {
		writeErr(w, http.StatusBadRequest, "key required")
		return
	}
	if req.Size <= 0 || req.Size > maxDeclaredSize {
		writeErr(w, http.StatusBadRequest, "size must be a positive byte count")
		return
	}

	// A key committed under the wrong mode would dodge either retention
	// or quota accounting.
	wantPrefix := scopeLink + "/"
	if req.Mode == "cloud" {
		wantPrefix = cloudPrefix
	}
	if !strings.HasPrefix(req.Key, wantPrefix) {
		writeErr(w, http.StatusBadRequest, "key does not match mode")
		return
	}

	ctx := r.Context()

	plan, err := s.users.PlanFor(ctx, userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}
	limits, err := limitsFor(plan)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}
	if req.Size > limits.MaxTransferBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, "file too large for plan")
		return
	}

	now := time.Now().UTC()

	if req.Mode == "link" {
		expiresAt := now.Add(s.cfg.LinkTTL)

		// Token collisions are exceptional; regenerate instead of
		// overwriting an existing row.
		var token string
		for attempt := 0; attempt < 3; attempt++ {
			token = newShareToken()
			err = s.registry.CreateLink(ctx, ShareLink{
				Token:     token,
				UserID:    userID,
				Key:       req.Key,
				SizeBytes: req.Size,
				CreatedAt: now,
				ExpiresAt: expiresAt,
			})
			if err != ErrDuplicate {
				break
			}
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "db error")
			return
		}

		GetMetrics().RecordCommit(req.Size)
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"token":     token,
			"url":       s.cfg.BaseURL + "/s/" + token,
			"expiresAt": expiresAt.Format(time.RFC3339),
		})
		return
	}

	// cloud mode: capacity re-check, registry row, then the wallet charge.
	if err := s.wallet.Ensure(ctx, userID, limits); err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}
	ok, err := s.wallet.Check(ctx, userID, req.Size)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}
	if !ok {
		writeErr(w, http.StatusForbidden, "storage quota exceeded")
		return
	}

	var expiresAt *time.Time
	if plan == defaultPlan {
		t := now.Add(s.cfg.FreeRetention)
		expiresAt = &t
	}

	id := strings.TrimSpace(req.FileID)
	if id == "" {
		id = newAssetID()
	}
	for attempt := 0; attempt < 3; attempt++ {
		err = s.registry.CreateAsset(ctx, CloudAsset{
			ID:        id,
			UserID:    userID,
			Key:       req.Key,
			SizeBytes: req.Size,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		})
		if err != ErrDuplicate {
			break
		}
		id = newAssetID()
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}

	// If this increment fails after the insert above, the wallet reads
	// low until the asset expires and the sweep reconciles it.
	if err := s.wallet.Add(ctx, userID, req.Size); err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}

	resp := map[string]any{"ok": true, "id": id}
	if expiresAt != nil {
		resp["expiresAt"] = expiresAt.Format(time.RFC3339)
	} else {
		resp["expiresAt"] = nil
	}
	GetMetrics().RecordCommit(req.Size)
	writeJSON(w, http.StatusOK, resp)
}
