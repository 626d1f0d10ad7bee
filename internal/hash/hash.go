package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Digest returns the unsalted SHA-256 of s as lowercase hex.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(stored, password string) bool
}

func NewPasswordHasher(scheme string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeSHA256:
		return SHA256Hasher{}, nil
	case SchemeBcrypt:
		return BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hash scheme %q", scheme)
	}
}

// SHA256Hasher keeps stored passwords readable by deployments that still
// look users up by login and digest.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	return Digest(password), nil
}

func (SHA256Hasher) Check(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(Digest(password))) == 1
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func (BcryptHasher) Check(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
