// Package auth provides password hashing, access tokens and the bearer-token middleware.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt cost bounds.
const (
	DefaultBcryptCost = 12
	MinBcryptCost     = 10
	MaxBcryptCost     = 14
)

// MaxPasswordBytes is the longest input bcrypt accepts, pepper included.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by Hash when the password and pepper exceed
// MaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password too long")

// Hasher hashes and verifies passwords with bcrypt and an optional pepper.
type Hasher struct {
	cost   int
	pepper string
}

// NewHasher validates cost and returns a Hasher. A zero cost selects DefaultBcryptCost.
func NewHasher(cost int, pepper string) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < MinBcryptCost || cost > MaxBcryptCost {
		return nil, fmt.Errorf("bcrypt cost out of range: %d (must be %d-%d)", cost, MinBcryptCost, MaxBcryptCost)
	}
	return &Hasher{cost: cost, pepper: pepper}, nil
}

// Cost returns the bcrypt work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// MaxPasswordLen is the longest password Hash accepts with this pepper.
func (h *Hasher) MaxPasswordLen() int {
	return max(MaxPasswordBytes-len(h.pepper), 0)
}

// Hash returns the bcrypt hash of pw.
func (h *Hasher) Hash(pw string) (string, error) {
	if len(pw) > h.MaxPasswordLen() {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrPasswordTooLong, len(pw), h.MaxPasswordLen())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw+h.pepper), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether pw matches storedHash.
func (h *Hasher) Verify(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw+h.pepper)) == nil
}
