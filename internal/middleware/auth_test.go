package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userhub/userhub/internal/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthTestConfig(t *testing.T) (AuthConfig, *auth.TokenService, *auth.MemoryRevocationStore) {
	t.Helper()

	tokens := auth.NewTokenService("middleware-test-secret", time.Hour)
	revocations := auth.NewMemoryRevocationStore(time.Hour)

	cfg := AuthConfig{
		Logger:      testLogger(),
		Tokens:      tokens,
		Revocations: revocations,
	}
	return cfg, tokens, revocations
}

func claimsEchoHandler(t *testing.T, wantUserID int64, wantEmail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		require.NotNil(t, claims, "claims should be in context")
		assert.Equal(t, wantUserID, claims.UserID)
		assert.Equal(t, wantEmail, claims.Email)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	cfg, tokens, _ := newAuthTestConfig(t)

	token, err := tokens.Issue(42, "a@x.com")
	require.NoError(t, err)

	handler := Auth(cfg)(claimsEchoHandler(t, 42, "a@x.com"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	cfg, _, _ := newAuthTestConfig(t)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestAuth_MalformedHeader(t *testing.T) {
	cfg, _, _ := newAuthTestConfig(t)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	for _, header := range []string{"Basic abc", "Bearer", "justatoken"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	cfg, _, _ := newAuthTestConfig(t)

	other := auth.NewTokenService("a-different-secret", time.Hour)
	foreign, err := other.Issue(1, "a@x.com")
	require.NoError(t, err)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RevokedToken(t *testing.T) {
	cfg, tokens, revocations := newAuthTestConfig(t)

	token, err := tokens.Issue(7, "b@x.com")
	require.NoError(t, err)

	// The token is still cryptographically valid.
	_, err = tokens.Verify(token)
	require.NoError(t, err)

	require.NoError(t, revocations.Revoke(context.Background(), token, tokens.Expiry(token)))

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	cfg, _, _ := newAuthTestConfig(t)

	expiredSvc := auth.NewTokenService("middleware-test-secret", time.Nanosecond)
	token, err := expiredSvc.Issue(7, "b@x.com")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MissingSigningSecretIsServerError(t *testing.T) {
	cfg, _, _ := newAuthTestConfig(t)
	cfg.Tokens = auth.NewTokenService("", time.Hour)

	handler := Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
