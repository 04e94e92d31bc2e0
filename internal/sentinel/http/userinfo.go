package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelsec/sentinel/internal/sentinel/service"
	"github.com/sentinelsec/sentinel/pkg/httpx"
	"github.com/sentinelsec/sentinel/pkg/slogx"
)

// MeHandler serves GET /v1/auth/me.
type MeHandler struct {
	AuthService *service.AuthService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	view, err := h.AuthService.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrStaleSubject) {
			httpx.WriteError(w, http.StatusUnauthorized, "account no longer active")
			return
		}
		slogx.FromContext(r.Context()).Error("userinfo failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, view)
}
