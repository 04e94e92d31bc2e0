package http

import (
	"net/http"

	"github.com/sentinelsec/sentinel/internal/sentinel/service"
	"github.com/sentinelsec/sentinel/pkg/httpx"
)

// LogoutHandler serves POST /v1/auth/logout. Logout is stateless: the event
// is recorded for the audit trail and the tokens keep working until expiry.
type LogoutHandler struct {
	AuthService *service.AuthService
}

type logoutResponse struct {
	Detail string `json:"detail"`
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	h.AuthService.Logout(r.Context(), claims, httpx.ClientIP(r), userAgent(r))
	httpx.WriteJSON(w, http.StatusOK, logoutResponse{
		Detail: "logged out; tokens remain valid until expiry",
	})
}
