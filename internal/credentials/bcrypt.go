// Package credentials hashes and verifies account passwords.
package credentials

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Verifier hashes passwords one way and checks candidates against a hash.
type Verifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Bcrypt is a Verifier backed by bcrypt with a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt verifier. Out of range costs fall back to
// bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (b *Bcrypt) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
