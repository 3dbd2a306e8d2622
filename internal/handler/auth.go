package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/handler/dto"
	"github.com/userhub/userhub/internal/metrics"
	"github.com/userhub/userhub/internal/service"
)

// AuthHandler handles login, logout and the protected probe endpoint.
type AuthHandler struct {
	svc         *service.UserService
	tokens      *auth.TokenService
	revocations auth.RevocationStore
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.UserService, tokens *auth.TokenService, revocations auth.RevocationStore, logger *slog.Logger, recorder metrics.Recorder) *AuthHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthHandler{
		svc:         svc,
		tokens:      tokens,
		revocations: revocations,
		logger:      logger,
		metrics:     recorder,
	}
}

// Login handles POST /api/v1/login.
//
// Unknown email and wrong password produce the same response body so the
// endpoint does not leak which emails are registered.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Email and password are required.")
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		default:
			h.logger.Error("login failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.logger.Error("token issuance failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

// Logout handles POST /api/v1/logout.
//
// Whatever bearer string is presented gets revoked, valid or not. The
// revocation entry is tagged with the token's own expiry when it can be
// parsed so the store can prune it once it would have expired anyway.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No token provided.")
		return
	}

	expiresAt := h.tokens.Expiry(token)
	if err := h.revocations.Revoke(r.Context(), token, expiresAt); err != nil {
		h.logger.Error("token revocation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Failed to log out.")
		return
	}

	h.metrics.IncTokenRevoked()
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out successfully."})
}

// ProtectedResponse is the body returned by the protected probe.
type ProtectedResponse struct {
	Message string       `json:"message"`
	User    *auth.Claims `json:"user"`
}

// Protected handles GET /api/v1/protected.
//
// This route has its own guard with a 401/403 split: a missing or
// malformed Authorization header is 401, while a token that is present
// but invalid, expired or revoked is 403. The /users routes answer 401
// for every auth failure instead.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		h.metrics.IncAuthRejected()
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	revoked, err := h.revocations.IsRevoked(r.Context(), token)
	if err != nil {
		h.logger.Error("revocation check failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if revoked {
		h.metrics.IncAuthRejected()
		writeError(w, http.StatusForbidden, "Invalid token")
		return
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrNoSigningSecret) {
			h.logger.Error("token verification failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "Something went wrong")
			return
		}
		h.metrics.IncAuthRejected()
		writeError(w, http.StatusForbidden, "Invalid token")
		return
	}

	writeJSON(w, http.StatusOK, ProtectedResponse{
		Message: "Access granted",
		User:    claims,
	})
}
