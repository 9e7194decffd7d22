package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt. The salt is
// generated per hash and embedded in the result.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using cost, clamped to bcrypt's valid range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext. Passwords longer than
// bcrypt's 72-byte input limit are rejected with common.ErrorValidation.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password too long", common.ErrorValidation)
		}
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a mismatch.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
