// Package repomanager vends repository implementations bound to a DBTX, so
// services can run the same repository code against *sql.DB or inside a
// transaction handle.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/hararihq/prosperity/internal/dbx"
	"github.com/hararihq/prosperity/internal/server/repositories/accounts"
	"github.com/hararihq/prosperity/internal/server/repositories/refreshtokens"
	"github.com/hararihq/prosperity/internal/server/repositories/reports"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Reports(db dbx.DBTX) reports.Repository

	// WithinTransaction runs fn with a transactional handle; the repositories
	// vended from that handle commit or roll back together.
	WithinTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error
}
