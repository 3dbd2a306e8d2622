package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// claimsContextKey is the context key for storing verified token claims.
const claimsContextKey contextKey = "auth_claims"

// ContextWithClaims adds verified claims to the context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves claims from the context.
// Returns nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// MustClaimsFromContext retrieves claims from the context.
// Panics if not present (use only behind the auth middleware).
func MustClaimsFromContext(ctx context.Context) *Claims {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		panic("auth claims not found - ensure auth middleware is applied")
	}
	return claims
}
