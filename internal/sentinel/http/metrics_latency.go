package http

import (
	"net/http"

	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/sentinelsec/sentinel/pkg/httpx"
)

// LatencyHandler serves GET /v1/metrics/latency.
type LatencyHandler struct {
	Tracker *telemetry.LatencyTracker
}

func (h *LatencyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.Tracker.Snapshot())
}
