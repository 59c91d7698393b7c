package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/logging"
	"github.com/hararihq/prosperity/internal/server/auth"
	"github.com/hararihq/prosperity/internal/server/blob"
	"github.com/hararihq/prosperity/internal/server/models"
	"github.com/hararihq/prosperity/internal/server/repositories/repomanager"
)

// AccountService covers account self-management: profile reads and updates,
// password changes, and full account deletion.
type AccountService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  blob.Store
	logger logging.Logger
}

// NewAccountService constructs an AccountService. blobs may be nil when
// object storage is not configured; deletion then skips attachment cleanup.
func NewAccountService(db *sql.DB, repos repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *AccountService {
	return &AccountService{db: db, repos: repos, blobs: blobs, logger: logger}
}

// Get returns the account by id.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repos.Accounts(s.db).GetByID(ctx, id)
}

// UpdateProfile merges the given metadata into the account's existing blob
// and, when newPassword is non-empty, re-hashes the password. Merging rather
// than replacing lets clients send partial updates.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, metadata map[string]any, newPassword string) (*models.Account, error) {
	repo := s.repos.Accounts(s.db)

	account, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if newPassword != "" {
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return nil, common.ErrorInternal
		}
		if err := repo.UpdatePasswordHash(ctx, id, hash); err != nil {
			return nil, common.ErrorInternal
		}
	}

	merged := account.Metadata
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range metadata {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	updated, err := repo.UpdateProfile(ctx, id, merged)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.ErrorInternal
	}
	return updated, nil
}

// Delete removes the account and everything it owns. Stored attachment
// objects are deleted best-effort first; the row deletion then cascades to
// reports and refresh tokens. A failed object delete is logged, not fatal —
// an orphaned blob is recoverable, a half-deleted account is not.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if s.blobs != nil {
		keys, err := s.repos.Reports(s.db).AttachmentKeysForAccount(ctx, id)
		if err != nil {
			return common.ErrorInternal
		}
		for _, key := range keys {
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn(ctx, "error deleting attachment object", "key", key, "error", err)
			}
		}
	}

	if err := s.repos.Accounts(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return common.ErrorInternal
	}
	return nil
}
