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

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	domain.TokenPair
	User domain.UserView `json:"user"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	pair, user, err := h.AuthService.Login(r.Context(), service.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		SourceIP:  httpx.ClientIP(r),
		UserAgent: userAgent(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrAccountInactive):
			httpx.WriteError(w, http.StatusForbidden, "account inactive")
		default:
			slogx.FromContext(r.Context()).Error("login failed", slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{TokenPair: pair, User: user})
}

func userAgent(r *http.Request) *string {
	ua := r.UserAgent()
	if ua == "" {
		return nil
	}
	return &ua
}
