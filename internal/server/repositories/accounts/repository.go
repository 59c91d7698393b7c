// Package accounts declares the repository contract for identity records.
package accounts

import (
	"context"
	"time"

	"github.com/hararihq/prosperity/internal/server/models"
)

// Repository defines persistence operations for accounts. Lookups return
// common.ErrorNotFound when no row matches; Create returns
// common.ErrorDuplicateEmail on a unique-email violation.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)

	// UpdateProfile replaces the account's metadata blob.
	UpdateProfile(ctx context.Context, id string, metadata map[string]any) (*models.Account, error)

	// UpdatePasswordHash replaces the stored bcrypt hash.
	UpdatePasswordHash(ctx context.Context, id string, hash []byte) error

	// SetResetToken records the sha256 hash and expiry of an outstanding
	// password-reset token, replacing any previous one.
	SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error

	// RedeemResetToken atomically replaces the password hash and clears the
	// reset token, but only if tokenHash matches an unexpired outstanding
	// token. Returns false when no such token exists, which makes the token
	// single-use by construction.
	RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash []byte) (bool, error)

	// SetVerificationToken records an outstanding email-verification token.
	SetVerificationToken(ctx context.Context, id string, tokenHash string, expires time.Time) error

	// RedeemVerificationToken marks the owning account's email verified and
	// clears the token, single-use like RedeemResetToken.
	RedeemVerificationToken(ctx context.Context, tokenHash string) (bool, error)

	// Delete removes the account. Owned reports and refresh tokens go with it
	// via the schema's ON DELETE CASCADE policies.
	Delete(ctx context.Context, id string) error
}
