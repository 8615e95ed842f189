package auth

import (
	"errors"

	"github.com/pizza-app/auth-service/services"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
	// CompareDummy spends the same work as Compare against a fixed hash
	CompareDummy(plain string)
}

// BcryptHasher is a PasswordHasher backed by bcrypt
type BcryptHasher struct {
	cost  int
	dummy []byte
}

// NewBcryptHasher creates a hasher with the given cost. Costs outside bcrypt's
// range fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), cost)
	return &BcryptHasher{cost: cost, dummy: dummy}
}

// Hash returns the bcrypt hash of plain. Passwords over 72 bytes are a
// validation failure.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", services.ErrPasswordTooLong
		}
		return "", err
	}
	return string(b), nil
}

// Compare reports whether plain matches hash
func (h *BcryptHasher) Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CompareDummy lets unknown users take as long to reject as wrong passwords
func (h *BcryptHasher) CompareDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}
