package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore records token strings that must no longer be trusted.
// Logout never validates the token it is handed, so entries may be
// strings that were never valid tokens at all.
type RevocationStore interface {
	// Revoke marks a token string as revoked. Idempotent. expiresAt is
	// the token's own expiry; implementations may discard the entry once
	// that moment has passed, since expiry alone then rejects the token.
	// A zero expiresAt means the expiry could not be determined.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error

	// IsRevoked reports whether the token string has been revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryRevocationStore is an in-process RevocationStore. Revocations do
// not survive a restart and are invisible to other instances; use the
// Redis-backed store for multi-instance deployments.
type MemoryRevocationStore struct {
	mu         sync.RWMutex
	entries    map[string]time.Time
	defaultTTL time.Duration
}

// NewMemoryRevocationStore creates an empty in-memory store. defaultTTL
// bounds the lifetime of entries whose token expiry is unknown.
func NewMemoryRevocationStore(defaultTTL time.Duration) *MemoryRevocationStore {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &MemoryRevocationStore{
		entries:    make(map[string]time.Time),
		defaultTTL: defaultTTL,
	}
}

// Revoke adds the token string to the revoked set.
func (s *MemoryRevocationStore) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.defaultTTL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	s.entries[token] = expiresAt
	return nil
}

// IsRevoked reports whether the token string is in the revoked set.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.entries[token]
	if !ok {
		return false, nil
	}

	// Expired entries are dead weight: the token's own expiry already
	// rejects it. Report not-revoked and let the next Revoke prune.
	if time.Now().After(expiresAt) {
		return false, nil
	}

	return true, nil
}

// Len returns the number of live entries. Intended for tests.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// prune drops entries past their expiry. Caller must hold the write lock.
func (s *MemoryRevocationStore) prune() {
	now := time.Now()
	for token, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, token)
		}
	}
}
