package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cliplink/cliplink/internal/analytics"
)

const (
	defaultSummaryDays = 7
	maxSummaryDays     = 90
)

// AnalyticsHandler serves the resolution-usage summary.
type AnalyticsHandler struct {
	pipeline *analytics.Pipeline
	logger   *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(pipeline *analytics.Pipeline, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		pipeline: pipeline,
		logger:   logger.With("component", "handler.analytics"),
	}
}

// Summary aggregates resolution records over the last N days.
//
// GET /api/v1/analytics/summary?days=7
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days := defaultSummaryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeFieldError(w, http.StatusBadRequest, "INVALID_DAYS", "days must be a positive integer", "days")
			return
		}
		days = n
	}
	if days > maxSummaryDays {
		days = maxSummaryDays
	}

	summary, err := h.pipeline.Summary(r.Context(), days)
	if err != nil {
		h.logger.Error("summary aggregation failed", "days", days, "error", err)
		writeError(w, http.StatusInternalServerError, "SUMMARY_ERROR", "could not aggregate analytics")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
