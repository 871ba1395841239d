package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/taskdock/taskdock/internal/domain"
	"github.com/taskdock/taskdock/internal/service"
	"github.com/taskdock/taskdock/pkg/httpx"
	"github.com/taskdock/taskdock/pkg/sdk"
	"github.com/taskdock/taskdock/pkg/slogx"
)

// AuthHandler serves the register, login and refresh endpoints.
type AuthHandler struct {
	AuthService *service.AuthService
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "Malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "email and password are required")
		return
	}

	pair, err := h.AuthService.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			httpx.WriteError(w, http.StatusUnprocessableEntity, sdk.ErrorCodeInvalidEmail, "Email address is not valid")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusUnprocessableEntity, sdk.ErrorCodeWeakPassword, err.Error())
		case errors.Is(err, service.ErrDuplicateAccount):
			httpx.WriteError(w, http.StatusUnprocessableEntity, sdk.ErrorCodeDuplicateAccount, "An account with this email already exists")
		default:
			log.Error("failed to register account", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, sdk.ErrorCodeServerError, "Failed to register account")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, tokenPairResponse(pair))
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "Malformed JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "email and password are required")
		return
	}

	pair, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		var locked *service.AccountLockedError
		switch {
		case errors.As(err, &locked):
			writeAccountLocked(w, locked)
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, sdk.ErrorCodeInvalidCredentials, "Invalid email or password")
		default:
			log.Error("failed to process login", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, sdk.ErrorCodeServerError, "Failed to process login")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenPairResponse(pair))
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req sdk.RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "Malformed JSON body")
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		httpx.WriteError(w, http.StatusBadRequest, sdk.ErrorCodeInvalidRequest, "refresh_token is required")
		return
	}

	access, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		var locked *service.AccountLockedError
		switch {
		case errors.As(err, &locked):
			writeAccountLocked(w, locked)
		case errors.Is(err, service.ErrInvalidRefreshToken):
			httpx.WriteError(w, http.StatusUnauthorized, sdk.ErrorCodeInvalidRefreshToken, "Refresh token is invalid or expired")
		default:
			log.Error("failed to refresh token", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, sdk.ErrorCodeServerError, "Failed to refresh token")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sdk.TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(h.AuthService.AccessTTL.Seconds()),
	})
}

func tokenPairResponse(pair *domain.TokenPair) sdk.TokenResponse {
	return sdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
	}
}

func writeAccountLocked(w http.ResponseWriter, locked *service.AccountLockedError) {
	// Round up so a client honouring Retry-After never retries early.
	retryAfter := int(math.Ceil(locked.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
	httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
		Error:            sdk.ErrorCodeAccountLocked,
		ErrorDescription: "Account is temporarily locked after repeated failed logins",
		RetryAfter:       retryAfter,
	})
}
