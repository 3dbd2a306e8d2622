package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/userhub/userhub/internal/auth"
	"github.com/userhub/userhub/internal/metrics"
)

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger      *slog.Logger
	Tokens      *auth.TokenService
	Revocations auth.RevocationStore
	Metrics     metrics.Recorder
}

// Auth returns a middleware that authenticates API requests.
// It extracts the bearer token from the Authorization header, rejects
// revoked or invalid tokens, and injects the verified claims into the
// request context. Every rejection is a 401 with the same body, so the
// response shape reveals nothing about why the credential failed.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.BearerToken(r)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthRejected()
				writeAuthError(w)
				return
			}

			revoked, err := cfg.Revocations.IsRevoked(r.Context(), token)
			if err != nil {
				// A broken revocation backend must not silently admit
				// tokens that may have been revoked.
				cfg.Logger.Error("revocation check failed",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeServerError(w)
				return
			}
			if revoked {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "revoked_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthRejected()
				writeAuthError(w)
				return
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				if errors.Is(err, auth.ErrNoSigningSecret) {
					cfg.Logger.Error("token verification unavailable",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeServerError(w)
					return
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthRejected()
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}

// writeServerError writes a generic 500 response.
func writeServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"Something went wrong"}`))
}
