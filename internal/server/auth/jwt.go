// Package auth implements the cryptographic primitives of the session
// authority: HS256 token minting and verification, bcrypt password hashing,
// and one-way single-use tokens for password reset and email verification.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hararihq/prosperity/internal/common"
)

// Claims is the shared payload of access and refresh tokens. The two token
// kinds differ only in signing secret and validity; keeping the payload
// identical lets the refresh path re-mint an access token without a lookup.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
	Email     string `json:"email"`
}

// GenerateToken mints an HS256 token for the given identity, expiring after
// validity. The caller chooses the secret: access and refresh tokens must be
// signed with distinct secrets so one can never be replayed as the other.
func GenerateToken(accountID, email string, secret []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		AccountID: accountID,
		Email:     email,
	})

	return token.SignedString(secret)
}

// ParseToken verifies signature and expiry against the given secret and
// returns the decoded claims. Forged, expired and wrongly-signed tokens all
// fail here; callers collapse the failure into their own error taxonomy.
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
