// internal/api/daily_check.go
package api

import (
	"net/http"

	"selective-prep/internal/models"
)

// RunDailyCheck triggers one reconciliation sweep on demand. The in-process
// scheduler runs the same job daily; this endpoint exists for operators and
// cron-style external triggers.
func (h *Handler) RunDailyCheck(w http.ResponseWriter, r *http.Request) {
	count, err := h.sweep.Run(r.Context())
	if err != nil {
		h.logger.Errorw("daily payment check failed", "error", err)
		respondError(w, http.StatusInternalServerError, "sweep_failed", "daily payment check aborted")
		return
	}

	respondJSON(w, http.StatusOK, models.DailyCheckResponse{
		Success:        true,
		ProcessedCount: count,
		Message:        "Daily payment check completed",
	})
}
