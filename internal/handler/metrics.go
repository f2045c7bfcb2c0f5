package handler

import (
	"net/http"

	"github.com/cliplink/cliplink/internal/metrics"
)

// MetricsHandler exposes the in-memory metrics snapshot. Mounted only
// in development.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Snapshot dumps current counters.
//
// GET /debug/metrics
func (h *MetricsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshotter.Snapshot())
}
