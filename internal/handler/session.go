package handler

import (
	"log/slog"
	"net/http"

	"github.com/cliplink/cliplink/internal/session"
)

// SessionHandler serves session statistics.
type SessionHandler struct {
	manager *session.Manager
	logger  *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(manager *session.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		logger:  logger.With("component", "handler.session"),
	}
}

// Stats reports total, active and expired session counts, re-evaluated
// at call time.
//
// GET /api/v1/sessions/stats
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.manager.Stats(r.Context())
	if err != nil {
		h.logger.Error("session stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "STATS_ERROR", "could not read session stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
