package handler

import (
	"net/http"

	"github.com/bookery/bookery/internal/metrics"
)

// MetricsHandler exposes recorded counters for operators.
type MetricsHandler struct {
	snap metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snap metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snap: snap}
}

// Metrics handles GET /metrics with a JSON snapshot of all counters.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snap.Snapshot())
}
