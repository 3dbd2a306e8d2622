package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// revokedKeyPrefix is the Redis key prefix for revoked tokens.
	revokedKeyPrefix = "auth:revoked:"
	// minRevocationTTL keeps an entry alive long enough to cover clock
	// skew between instances even when the token is already expired.
	minRevocationTTL = time.Minute
)

// RevocationStore is a Redis-backed implementation of auth.RevocationStore.
// Entries are shared across instances and expire with the token they
// revoke, so the set never grows unboundedly.
type RevocationStore struct {
	cache      *Cache
	defaultTTL time.Duration
}

// NewRevocationStore creates a RevocationStore over the given cache.
// defaultTTL bounds the lifetime of entries whose token expiry is unknown.
func NewRevocationStore(cache *Cache, defaultTTL time.Duration) *RevocationStore {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &RevocationStore{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Revoke marks the token string as revoked until its expiry.
func (s *RevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := s.defaultTTL
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
	}
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}

	key := revokedKeyPrefix + hashToken(token)
	if err := s.cache.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token string has been revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := revokedKeyPrefix + hashToken(token)

	if err := s.cache.client.Get(ctx, key).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return true, nil
}

// hashToken derives a fixed-size Redis key from the raw token string.
// Tokens can be long and contain arbitrary bytes; keys should be neither.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
