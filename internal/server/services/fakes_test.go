package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/dbx"
	"github.com/hararihq/prosperity/internal/logging"
	"github.com/hararihq/prosperity/internal/server/models"
	"github.com/hararihq/prosperity/internal/server/repositories/accounts"
	"github.com/hararihq/prosperity/internal/server/repositories/refreshtokens"
	"github.com/hararihq/prosperity/internal/server/repositories/reports"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeAccountsRepo keeps accounts in memory, guarded by a mutex so tests can
// exercise concurrent service paths.
type fakeAccountsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Account
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{rows: map[string]*models.Account{}}
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.Metadata = map[string]any{}
	for k, v := range a.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

func (r *fakeAccountsRepo) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == account.Email {
			return nil, common.ErrorDuplicateEmail
		}
	}
	c := cloneAccount(account)
	c.ID = uuid.NewString()
	c.IsActive = true
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.rows[c.ID] = c
	return cloneAccount(c), nil
}

func (r *fakeAccountsRepo) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == email {
			return cloneAccount(row), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccountsRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		return cloneAccount(row), nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeAccountsRepo) UpdateProfile(_ context.Context, id string, metadata map[string]any) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row.Metadata = metadata
	row.UpdatedAt = time.Now()
	return cloneAccount(row), nil
}

func (r *fakeAccountsRepo) UpdatePasswordHash(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.PasswordHash = hash
	return nil
}

func (r *fakeAccountsRepo) SetResetToken(_ context.Context, id string, tokenHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.ResetTokenHash = tokenHash
	row.ResetTokenExpires = expires
	return nil
}

func (r *fakeAccountsRepo) RedeemResetToken(_ context.Context, tokenHash string, newPasswordHash []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ResetTokenHash == tokenHash && tokenHash != "" && time.Now().Before(row.ResetTokenExpires) {
			row.PasswordHash = newPasswordHash
			row.ResetTokenHash = ""
			row.ResetTokenExpires = time.Time{}
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountsRepo) SetVerificationToken(_ context.Context, id string, tokenHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.VerificationTokenHash = tokenHash
	row.VerificationTokenExpires = expires
	return nil
}

func (r *fakeAccountsRepo) RedeemVerificationToken(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.VerificationTokenHash == tokenHash && tokenHash != "" && time.Now().Before(row.VerificationTokenExpires) {
			row.IsEmailVerified = true
			row.VerificationTokenHash = ""
			row.VerificationTokenExpires = time.Time{}
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAccountsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.rows, id)
	return nil
}

// fakeRefreshTokensRepo mirrors the conditional-delete contract of the
// Postgres implementation: the presence check and the removal happen under
// one lock, so concurrent deletes of the same token see exactly one true.
type fakeRefreshTokensRepo struct {
	mu   sync.Mutex
	rows map[string]map[string]bool
}

func newFakeRefreshTokensRepo() *fakeRefreshTokensRepo {
	return &fakeRefreshTokensRepo{rows: map[string]map[string]bool{}}
}

func (r *fakeRefreshTokensRepo) Create(_ context.Context, accountID string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rows[accountID] == nil {
		r.rows[accountID] = map[string]bool{}
	}
	r.rows[accountID][token] = true
	return nil
}

func (r *fakeRefreshTokensRepo) Delete(_ context.Context, accountID string, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.rows[accountID][token] {
		return false, nil
	}
	delete(r.rows[accountID], token)
	return true, nil
}

func (r *fakeRefreshTokensRepo) has(accountID, token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[accountID][token]
}

func (r *fakeRefreshTokensRepo) count(accountID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows[accountID])
}

type fakeReportsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Report
}

func newFakeReportsRepo() *fakeReportsRepo {
	return &fakeReportsRepo{rows: map[string]*models.Report{}}
}

func cloneReport(r *models.Report) *models.Report {
	c := *r
	c.Attachments = append([]string(nil), r.Attachments...)
	return &c
}

func (r *fakeReportsRepo) Create(_ context.Context, report *models.Report) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneReport(report)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.rows[c.ID] = c
	return cloneReport(c), nil
}

func (r *fakeReportsRepo) GetByID(_ context.Context, id string) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[id]; ok {
		return cloneReport(row), nil
	}
	return nil, common.ErrorNotFound
}

func (r *fakeReportsRepo) List(_ context.Context, accountID string, filter reports.ListFilter) ([]*models.Report, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Report
	for _, row := range r.rows {
		if row.AccountID != accountID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		out = append(out, cloneReport(row))
	}
	return out, int64(len(out)), nil
}

func (r *fakeReportsRepo) Update(_ context.Context, report *models.Report) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[report.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := cloneReport(report)
	c.UpdatedAt = time.Now()
	r.rows[c.ID] = c
	return cloneReport(c), nil
}

func (r *fakeReportsRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeReportsRepo) AddAttachments(_ context.Context, id string, keys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.Attachments = append(row.Attachments, keys...)
	return nil
}

func (r *fakeReportsRepo) RemoveAttachment(_ context.Context, id string, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	for i, k := range row.Attachments {
		if k == key {
			row.Attachments = append(row.Attachments[:i], row.Attachments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReportsRepo) AttachmentKeysForAccount(_ context.Context, accountID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, row := range r.rows {
		if row.AccountID == accountID {
			keys = append(keys, row.Attachments...)
		}
	}
	return keys, nil
}

// fakeRepoManager hands out the same in-memory fakes for every handle.
type fakeRepoManager struct {
	accounts      *fakeAccountsRepo
	refreshTokens *fakeRefreshTokensRepo
	reports       *fakeReportsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		accounts:      newFakeAccountsRepo(),
		refreshTokens: newFakeRefreshTokensRepo(),
		reports:       newFakeReportsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.refreshTokens }

func (m *fakeRepoManager) Reports(dbx.DBTX) reports.Repository { return m.reports }

// WithinTransaction has no transaction to open; the fakes are already atomic
// per call, so fn runs directly.
func (m *fakeRepoManager) WithinTransaction(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

// fakeBlobStore records operations; PresignGet returns a deterministic URL.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (s *fakeBlobStore) Put(_ context.Context, key string, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *fakeBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeBlobStore) PresignGet(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://blob.test/%s?signature=test", key), nil
}

func upload(name, content string) Upload {
	return Upload{Filename: name, Body: bytes.NewReader([]byte(content))}
}
