package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/dbx"
	"github.com/hararihq/prosperity/internal/server/models"
)

const uniqueViolation = "23505"

const accountColumns = `
	id, email, password_hash, is_active, is_email_verified,
	verification_token_hash, verification_token_expires,
	reset_token_hash, reset_token_expires,
	metadata, created_at, updated_at
`

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	metadata, err := json.Marshal(account.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata marshal error: %w", err)
	}

	query := `
		INSERT INTO accounts (email, password_hash, metadata)
		VALUES ($1, $2, $3)
		RETURNING ` + accountColumns

	created, err := scanAccount(r.db.QueryRowContext(ctx, query, account.Email, account.PasswordHash, metadata))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, metadata map[string]any) (*models.Account, error) {
	blob, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata marshal error: %w", err)
	}

	query := `
		UPDATE accounts
		SET metadata = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, blob))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, hash []byte) error {
	query := `
		UPDATE accounts
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id, hash)
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	query := `
		UPDATE accounts
		SET reset_token_hash = $2, reset_token_expires = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id, tokenHash, expires)
}

// RedeemResetToken performs the lookup, the password swap, and the token
// clearing in a single conditional UPDATE. A second redemption of the same
// token matches zero rows because the hash is already gone.
func (r *PostgresRepository) RedeemResetToken(ctx context.Context, tokenHash string, newPasswordHash []byte) (bool, error) {
	query := `
		UPDATE accounts
		SET password_hash = $2,
		    reset_token_hash = NULL,
		    reset_token_expires = NULL,
		    updated_at = now()
		WHERE reset_token_hash = $1 AND reset_token_expires > now()
	`
	res, err := r.db.ExecContext(ctx, query, tokenHash, newPasswordHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) SetVerificationToken(ctx context.Context, id string, tokenHash string, expires time.Time) error {
	query := `
		UPDATE accounts
		SET verification_token_hash = $2, verification_token_expires = $3, updated_at = now()
		WHERE id = $1
	`
	return r.execExpectingOne(ctx, query, id, tokenHash, expires)
}

func (r *PostgresRepository) RedeemVerificationToken(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE accounts
		SET is_email_verified = true,
		    verification_token_hash = NULL,
		    verification_token_expires = NULL,
		    updated_at = now()
		WHERE verification_token_hash = $1 AND verification_token_expires > now()
	`
	res, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`
	return r.execExpectingOne(ctx, query, id)
}

// --- helpers ---

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) execExpectingOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var (
		verificationHash    sql.NullString
		verificationExpires sql.NullTime
		resetHash           sql.NullString
		resetExpires        sql.NullTime
		metadata            []byte
	)

	err := row.Scan(
		&account.ID, &account.Email, &account.PasswordHash,
		&account.IsActive, &account.IsEmailVerified,
		&verificationHash, &verificationExpires,
		&resetHash, &resetExpires,
		&metadata, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.VerificationTokenHash = verificationHash.String
	account.VerificationTokenExpires = verificationExpires.Time
	account.ResetTokenHash = resetHash.String
	account.ResetTokenExpires = resetExpires.Time

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &account.Metadata); err != nil {
			return nil, fmt.Errorf("metadata unmarshal error: %w", err)
		}
	}
	if account.Metadata == nil {
		account.Metadata = map[string]any{}
	}

	return account, nil
}
