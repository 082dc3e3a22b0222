package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

// maxDeclaredSize rejects absurd size claims before they reach the
// wallet math. No plan allows transfers anywhere near this.
const maxDeclaredSize = int64(5) << 40 // 5 TiB

type presignReq struct {
	Mode        string `json:"mode"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type presignResp struct {
	OK        bool              `json:"ok"`
	Key       string            `json:"key"`
	FileID    string            `json:"fileId"`
	URL       string            `json:"url"`
	Headers   map[string]string `json:"headers"`
	ExpiresIn int               `json:"expiresIn"`
}

// handlePresign validates the declared upload against the caller's plan
// and quota, then mints a presigned PUT. Nothing is persisted here; the
// registry row is written at commit time.
func (s *Server) handlePresign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := identityFrom(r)
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "x-mixtli-token required")
		return
	}

	var req presignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "bad request")
		return
	}

	req.Mode = strings.TrimSpace(req.Mode)
	if req.Mode != "link" && req.Mode != "cloud" {
		writeErr(w, http.StatusBadRequest, "mode must be link or cloud")
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		writeErr(w, http.StatusBadRequest, "filename required")
		return
	}
	if req.Size <= 0 || req.Size > maxDeclaredSize {
		writeErr(w, http.StatusBadRequest, "size must be a positive byte count")
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

	// Size gate comes before any signing.
	if req.Size > limits.MaxTransferBytes {
		writeErr(w, http.StatusRequestEntityTooLarge, "file too large for plan")
		return
	}

	scope := scopeLink
	if req.Mode == "cloud" {
		if plan == defaultPlan {
			scope = scopeCloudFree
		} else {
			scope = scopeCloudPerm
		}

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
	}

	key := makeKey(scope, userID, req.Filename)

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := s.store.SignPut(ctx, key, s.cfg.PutTTL)
	if err != nil {
		rid := RequestIDFromContext(ctx)
		log.Printf("rid=%s msg=sign_put_failed err=%v", rid, err)
		writeErr(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	GetMetrics().RecordPresign()
	writeJSON(w, http.StatusOK, presignResp{
		OK:        true,
		Key:       key,
		FileID:    newAssetID(),
		URL:       url,
		Headers:   map[string]string{"Content-Type": contentType},
		ExpiresIn: int(s.cfg.PutTTL.Seconds()),
	})
}
