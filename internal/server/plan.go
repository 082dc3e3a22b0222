package server

import "net/http"

// handlePlan returns the caller's plan plus a wallet snapshot. The UI
// uses it to render percentage used.
// GET /api/me/plan
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := identityFrom(r)
	if userID == "" {
		writeErr(w, http.StatusUnauthorized, "x-mixtli-token required")
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

	if err := s.wallet.Ensure(ctx, userID, limits); err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}
	wal, err := s.wallet.Snapshot(ctx, userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"plan":   plan,
		"limits": limits,
		"wallet": wal,
	})
}
