// Package auth provides password hashing and token services.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the cost factor used when none is configured.
const DefaultBcryptCost = 12

// ErrEmptyPassword indicates an attempt to hash an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher hashes and verifies passwords using bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the given cost factor.
// Out-of-range costs are clamped to the bcrypt limits; zero or negative
// selects the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost <= 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of the plaintext password.
func (p *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether the plaintext password matches the stored hash.
func (p *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
