package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hararihq/prosperity/internal/common"
)

// NewOneTimeToken generates a random single-use token and the sha256 hex
// digest that gets persisted alongside an expiry. Only the digest is stored;
// the plaintext is emailed once and redeemed by re-hashing the presented
// value, so a database leak exposes nothing redeemable.
func NewOneTimeToken() (plain string, hash string, err error) {
	plain, err = common.MakeRandHexString(32)
	if err != nil {
		return "", "", err
	}
	return plain, HashOneTimeToken(plain), nil
}

// HashOneTimeToken maps a presented token to its stored form.
func HashOneTimeToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
