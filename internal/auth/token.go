package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token service errors.
var (
	// ErrNoSigningSecret indicates the signing secret is not configured.
	// Surfaced as a 500 - this is an operator error, not a client error.
	ErrNoSigningSecret = errors.New("token signing secret is not configured")

	// ErrInvalidToken covers signature mismatch, malformed structure and
	// expiry. Callers get a single rejection kind for all three.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoToken indicates the Authorization header is missing or is not
	// of the form "Bearer <token>".
	ErrNoToken = errors.New("no token provided")
)

// Claims is the payload carried by issued tokens.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. An empty secret is accepted at
// construction so the server can start; issuance and verification fail
// with ErrNoSigningSecret until a secret is configured.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for the given user identity, expiring
// after the configured TTL.
func (s *TokenService) Issue(userID int64, email string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSigningSecret
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify validates the signature and expiry of a token and returns its
// claims. All failure modes map to ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSigningSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiry extracts the expiry timestamp of a token without validating its
// signature. Used by logout, which blacklists whatever string was
// presented; the expiry bounds how long the revocation entry must live.
// Returns a zero time if the token cannot be parsed.
func (s *TokenService) Expiry(tokenString string) time.Time {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return time.Time{}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}
	}

	return claims.ExpiresAt.Time
}

// BearerToken extracts the bearer token from a request's Authorization
// header. Returns ErrNoToken if the header is absent or malformed.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrNoToken
	}

	return parts[1], nil
}
