package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelsec/sentinel/internal/sentinel/domain"
	"github.com/sentinelsec/sentinel/internal/sentinel/service"
	"github.com/sentinelsec/sentinel/pkg/httpx"
	"github.com/sentinelsec/sentinel/pkg/slogx"
)

// SecuritySummaryHandler serves GET /v1/metrics/security.
type SecuritySummaryHandler struct {
	MetricsService *service.SecurityMetricsService
}

func (h *SecuritySummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	summary, err := h.MetricsService.Summary(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("security summary failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

// ThreatHandler serves POST /v1/metrics/security/threat.
type ThreatHandler struct {
	MetricsService *service.SecurityMetricsService
}

type threatRequest struct {
	ThreatType  string `json:"threat_type"`
	Severity    string `json:"severity"`
	Blocked     bool   `json:"blocked"`
	Description string `json:"description,omitempty"`
}

type threatResponse struct {
	Detail string `json:"detail"`
}

func (h *ThreatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req threatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ip := httpx.ClientIP(r)
	report := service.ThreatReport{
		ThreatType:  req.ThreatType,
		Severity:    domain.Severity(req.Severity),
		Blocked:     req.Blocked,
		Description: req.Description,
		SourceIP:    &ip,
	}

	if err := h.MetricsService.RecordThreat(r.Context(), report); err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyThreatType):
			httpx.WriteError(w, http.StatusBadRequest, "threat_type is required")
		case errors.Is(err, service.ErrUnknownSeverity):
			httpx.WriteError(w, http.StatusBadRequest, "severity must be one of low, medium, high, critical")
		default:
			slogx.FromContext(r.Context()).Error("recording threat failed", slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, threatResponse{Detail: "threat recorded"})
}

// ResetHandler serves POST /v1/metrics/reset. Registered behind the admin
// role; it wipes counters, vectors, events, and the latency window.
type ResetHandler struct {
	MetricsService *service.SecurityMetricsService
}

func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.MetricsService.Reset(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Error("metrics reset failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, threatResponse{Detail: "metrics reset"})
}
