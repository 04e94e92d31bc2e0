package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelsec/sentinel/internal/sentinel/service"
	"github.com/sentinelsec/sentinel/pkg/httpx"
	"github.com/sentinelsec/sentinel/pkg/slogx"
)

// RefreshHandler serves POST /v1/auth/refresh.
type RefreshHandler struct {
	AuthService *service.AuthService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken, httpx.ClientIP(r), userAgent(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrWrongTokenType),
			errors.Is(err, service.ErrStaleSubject):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			slogx.FromContext(r.Context()).Error("refresh failed", slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
