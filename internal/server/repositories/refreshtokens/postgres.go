// Package refreshtokens provides the PostgreSQL-backed implementation of the
// per-account refresh-token set used by the session authority.
package refreshtokens

import (
	"context"
	"fmt"

	"github.com/hararihq/prosperity/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh token row for accountID.
func (r *PostgresRepository) Create(ctx context.Context, accountID string, token string) error {
	query := `
		INSERT INTO refresh_tokens (account_id, token)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes the token row if present and reports whether it was. The
// presence check and the removal are one DELETE, which is what makes rotation
// safe against two requests presenting the same token concurrently.
func (r *PostgresRepository) Delete(ctx context.Context, accountID string, token string) (bool, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE account_id = $1 AND token = $2
	`
	res, err := r.db.ExecContext(ctx, query, accountID, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}
