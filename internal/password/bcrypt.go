// Package password provides bcrypt-backed password hashing.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/propsight/propsight-server/internal/model"
)

// MaxLength is the bcrypt input limit in bytes. Longer passwords are
// rejected, never truncated.
const MaxLength = 72

var _ model.PasswordHasher = (*Bcrypt)(nil)

// Bcrypt implements model.PasswordHasher with a tunable cost factor.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a Bcrypt hasher. A cost outside the valid bcrypt range
// falls back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash produces a self-describing bcrypt hash of the password.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > MaxLength {
		return "", model.ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares password against a stored hash in constant time. Mismatch
// is reported as false; only a malformed stored hash is an error.
func (b *Bcrypt) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if len(password) > MaxLength {
		return false, model.ErrPasswordTooLong
	}
	return false, fmt.Errorf("%w: %v", model.ErrCorruptRecord, err)
}
