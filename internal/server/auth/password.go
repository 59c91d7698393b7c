package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/hararihq/prosperity/internal/common"
)

// HashPassword derives a salted bcrypt hash from the plaintext password.
// bcrypt embeds a per-record random salt, so equal passwords produce
// different hashes and the plaintext is never recoverable.
func HashPassword(password string) ([]byte, error) {
	plain := []byte(password)
	defer common.WipeByteArray(plain)
	return bcrypt.GenerateFromPassword(plain, bcrypt.DefaultCost)
}

// CheckPassword reports whether the candidate matches the stored hash.
// bcrypt's comparison runs in time independent of where a mismatch occurs.
func CheckPassword(hash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
}
