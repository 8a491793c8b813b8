package users

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password must be 72 bytes or fewer")

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}

// Matches reports whether plaintext matches hash. Malformed hashes simply do
// not match.
func (h *Hasher) Matches(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
