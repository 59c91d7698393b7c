// Package services contains server-side business logic. This file implements
// SessionService — the session authority: credential verification, token-pair
// minting, refresh-token rotation, revocation, and one-time reset/verification
// tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/dbx"
	"github.com/hararihq/prosperity/internal/server/auth"
	"github.com/hararihq/prosperity/internal/server/config"
	"github.com/hararihq/prosperity/internal/server/models"
	"github.com/hararihq/prosperity/internal/server/repositories/repomanager"
)

// TokenPair bundles an access token, a refresh token, and the absolute expiry
// of the access token. Both tokens are signed over the same {accountId, email}
// payload but with distinct secrets.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionService owns the authentication lifecycle. All secrets and lifetimes
// come from the Config captured at construction; operations never consult
// ambient state.
type SessionService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager

	accessSecret  []byte
	refreshSecret []byte

	accessValidity       time.Duration
	refreshValidity      time.Duration
	resetValidity        time.Duration
	verificationValidity time.Duration

	// dummyHash absorbs a bcrypt comparison when the email does not resolve,
	// keeping the unknown-email and wrong-password paths the same shape.
	dummyHash []byte
}

// NewSessionService constructs a SessionService from repositories and config.
func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	dummy, err := auth.HashPassword("session-authority-dummy")
	if err != nil {
		// bcrypt only fails on invalid cost; the default cost never does.
		panic(err)
	}
	return &SessionService{
		db:                   db,
		repos:                repos,
		accessSecret:         []byte(cfg.AccessTokenSecret),
		refreshSecret:        []byte(cfg.RefreshTokenSecret),
		accessValidity:       cfg.AccessTokenValidity,
		refreshValidity:      cfg.RefreshTokenValidity,
		resetValidity:        cfg.ResetTokenValidity,
		verificationValidity: cfg.VerificationTokenValidity,
		dummyHash:            dummy,
	}
}

// NormalizeEmail maps an email to its canonical stored form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account, opens its first session, and issues an email
// verification token. The returned string is the verification token plaintext,
// which exists only long enough to be emailed.
func (s *SessionService) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.Account, *TokenPair, string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, nil, "", common.ErrorInternal
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	repo := s.repos.Accounts(s.db)
	account, err := repo.Create(ctx, &models.Account{
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		Metadata:     metadata,
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateEmail) {
			return nil, nil, "", err
		}
		return nil, nil, "", fmt.Errorf("error creating account: %w", err)
	}

	pair, err := s.MintTokenPair(account.ID, account.Email)
	if err != nil {
		return nil, nil, "", common.ErrorInternal
	}
	if err := s.repos.RefreshTokens(s.db).Create(ctx, account.ID, pair.RefreshToken); err != nil {
		return nil, nil, "", common.ErrorInternal
	}

	verification, verificationHash, err := auth.NewOneTimeToken()
	if err != nil {
		return nil, nil, "", common.ErrorInternal
	}
	expires := time.Now().Add(s.verificationValidity)
	if err := repo.SetVerificationToken(ctx, account.ID, verificationHash, expires); err != nil {
		return nil, nil, "", common.ErrorInternal
	}

	return account, pair, verification, nil
}

// IssueSession verifies credentials and opens a new session. Unknown email,
// deactivated account, and wrong password all return ErrInvalidCredentials:
// the caller must not be able to tell them apart.
func (s *SessionService) IssueSession(ctx context.Context, email, password string) (*models.Account, *TokenPair, error) {
	repo := s.repos.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a comparison anyway so this path costs the same.
			auth.CheckPassword(s.dummyHash, password)
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, common.ErrorInternal
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		return nil, nil, common.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.MintTokenPair(account.ID, account.Email)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	if err := s.repos.RefreshTokens(s.db).Create(ctx, account.ID, pair.RefreshToken); err != nil {
		return nil, nil, common.ErrorInternal
	}

	return account, pair, nil
}

// MintTokenPair produces two independently signed tokens from the shared
// {accountId, email} payload. Pure: recording the refresh grant in the live
// set is the caller's responsibility, so that rotation can swap atomically
// instead of merely adding.
func (s *SessionService) MintTokenPair(accountID, email string) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, email, s.accessSecret, s.accessValidity)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateToken(accountID, email, s.refreshSecret, s.refreshValidity)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.accessValidity),
	}, nil
}

// RotateRefreshToken exchanges a live refresh token for a new pair. The
// presented token must both verify against the refresh secret and still be a
// member of the account's live set — signature validity alone is not
// authority, otherwise an already-rotated token could replay within its
// expiry window. The swap (conditional delete + insert) runs in one
// transaction, so of two concurrent rotations of the same token exactly one
// succeeds.
func (s *SessionService) RotateRefreshToken(ctx context.Context, presented string) (*TokenPair, error) {
	claims, err := auth.ParseToken(presented, s.refreshSecret)
	if err != nil {
		return nil, common.ErrInvalidRefreshToken
	}

	account, err := s.repos.Accounts(s.db).GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, common.ErrorInternal
	}

	pair, err := s.MintTokenPair(account.ID, account.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repos.WithinTransaction(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.RefreshTokens(tx)
		present, err := repo.Delete(ctx, account.ID, presented)
		if err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		if !present {
			return common.ErrInvalidRefreshToken
		}
		return repo.Create(ctx, account.ID, pair.RefreshToken)
	}); err != nil {
		if errors.Is(err, common.ErrInvalidRefreshToken) {
			return nil, common.ErrInvalidRefreshToken
		}
		return nil, common.ErrorInternal
	}

	return pair, nil
}

// RevokeSession removes one refresh token from the account's live set.
// Idempotent: revoking an absent token is not an error, and other sessions
// of the same account are untouched.
func (s *SessionService) RevokeSession(ctx context.Context, accountID, refreshToken string) error {
	if _, err := s.repos.RefreshTokens(s.db).Delete(ctx, accountID, refreshToken); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// ValidateAccessToken checks signature and expiry against the access secret.
// No store lookup happens here; the HTTP gate re-fetches the account and
// checks the active flag on every request.
func (s *SessionService) ValidateAccessToken(token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.accessSecret)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// RequestPasswordReset issues a reset token for the account, if one exists.
// The returned account is nil for unknown emails; callers respond identically
// either way so the endpoint cannot be used to enumerate accounts.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) (*models.Account, string, error) {
	repo := s.repos.Accounts(s.db)

	account, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", nil
		}
		return nil, "", common.ErrorInternal
	}

	token, tokenHash, err := auth.NewOneTimeToken()
	if err != nil {
		return nil, "", common.ErrorInternal
	}
	if err := repo.SetResetToken(ctx, account.ID, tokenHash, time.Now().Add(s.resetValidity)); err != nil {
		return nil, "", common.ErrorInternal
	}

	return account, token, nil
}

// CompletePasswordReset redeems a reset token and installs the new password.
// The redemption clears the stored hash in the same statement that matches
// it, so a given token succeeds at most once.
func (s *SessionService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	redeemed, err := s.repos.Accounts(s.db).RedeemResetToken(ctx, auth.HashOneTimeToken(token), hash)
	if err != nil {
		return common.ErrorInternal
	}
	if !redeemed {
		return common.ErrInvalidResetToken
	}
	return nil
}

// VerifyEmail redeems an email-verification token. Single-use, like reset.
func (s *SessionService) VerifyEmail(ctx context.Context, token string) error {
	redeemed, err := s.repos.Accounts(s.db).RedeemVerificationToken(ctx, auth.HashOneTimeToken(token))
	if err != nil {
		return common.ErrorInternal
	}
	if !redeemed {
		return common.ErrInvalidVerificationToken
	}
	return nil
}
