package httpapi

import (
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

// memStore is a single-lock in-memory backend behind all three repository
// interfaces, enough to run the full HTTP stack in tests.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	tokens   map[string]map[string]bool
	reports  map[string]*models.Report
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*models.Account{},
		tokens:   map[string]map[string]bool{},
		reports:  map[string]*models.Report{},
	}
}

func (s *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *memStore) Accounts(dbx.DBTX) accounts.Repository { return (*memAccounts)(s) }

func (s *memStore) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*memTokens)(s) }

func (s *memStore) Reports(dbx.DBTX) reports.Repository { return (*memReports)(s) }

func (s *memStore) WithinTransaction(ctx context.Context, _ *sql.DB, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

type memAccounts memStore

func (s *memAccounts) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.accounts {
		if row.Email == account.Email {
			return nil, common.ErrorDuplicateEmail
		}
	}
	c := *account
	c.ID = uuid.NewString()
	c.IsActive = true
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.accounts[c.ID] = &c
	out := c
	return &out, nil
}

func (s *memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.accounts {
		if row.Email == email {
			out := *row
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *memAccounts) GetByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.accounts[id]; ok {
		out := *row
		return &out, nil
	}
	return nil, common.ErrorNotFound
}

func (s *memAccounts) UpdateProfile(_ context.Context, id string, metadata map[string]any) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row.Metadata = metadata
	row.UpdatedAt = time.Now()
	out := *row
	return &out, nil
}

func (s *memAccounts) UpdatePasswordHash(_ context.Context, id string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.PasswordHash = hash
	return nil
}

func (s *memAccounts) SetResetToken(_ context.Context, id string, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.ResetTokenHash = tokenHash
	row.ResetTokenExpires = expires
	return nil
}

func (s *memAccounts) RedeemResetToken(_ context.Context, tokenHash string, newPasswordHash []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.accounts {
		if tokenHash != "" && row.ResetTokenHash == tokenHash && time.Now().Before(row.ResetTokenExpires) {
			row.PasswordHash = newPasswordHash
			row.ResetTokenHash = ""
			return true, nil
		}
	}
	return false, nil
}

func (s *memAccounts) SetVerificationToken(_ context.Context, id string, tokenHash string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.VerificationTokenHash = tokenHash
	row.VerificationTokenExpires = expires
	return nil
}

func (s *memAccounts) RedeemVerificationToken(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.accounts {
		if tokenHash != "" && row.VerificationTokenHash == tokenHash && time.Now().Before(row.VerificationTokenExpires) {
			row.IsEmailVerified = true
			row.VerificationTokenHash = ""
			return true, nil
		}
	}
	return false, nil
}

func (s *memAccounts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.accounts, id)
	for rid, row := range s.reports {
		if row.AccountID == id {
			delete(s.reports, rid)
		}
	}
	delete(s.tokens, id)
	return nil
}

type memTokens memStore

func (s *memTokens) Create(_ context.Context, accountID string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[accountID] == nil {
		s.tokens[accountID] = map[string]bool{}
	}
	s.tokens[accountID][token] = true
	return nil
}

func (s *memTokens) Delete(_ context.Context, accountID string, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tokens[accountID][token] {
		return false, nil
	}
	delete(s.tokens[accountID], token)
	return true, nil
}

type memReports memStore

func (s *memReports) Create(_ context.Context, report *models.Report) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *report
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.reports[c.ID] = &c
	out := c
	return &out, nil
}

func (s *memReports) GetByID(_ context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.reports[id]; ok {
		out := *row
		out.Attachments = append([]string(nil), row.Attachments...)
		return &out, nil
	}
	return nil, common.ErrorNotFound
}

func (s *memReports) List(_ context.Context, accountID string, filter reports.ListFilter) ([]*models.Report, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Report
	for _, row := range s.reports {
		if row.AccountID != accountID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		c := *row
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (s *memReports) Update(_ context.Context, report *models.Report) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *report
	c.UpdatedAt = time.Now()
	s.reports[c.ID] = &c
	out := c
	return &out, nil
}

func (s *memReports) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return common.ErrorNotFound
	}
	delete(s.reports, id)
	return nil
}

func (s *memReports) AddAttachments(_ context.Context, id string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reports[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.Attachments = append(row.Attachments, keys...)
	return nil
}

func (s *memReports) RemoveAttachment(_ context.Context, id string, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reports[id]
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

func (s *memReports) AttachmentKeysForAccount(_ context.Context, accountID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for _, row := range s.reports {
		if row.AccountID == accountID {
			keys = append(keys, row.Attachments...)
		}
	}
	return keys, nil
}

// memBlobs is an in-memory blob.Store.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (s *memBlobs) Put(_ context.Context, key string, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memBlobs) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memBlobs) PresignGet(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://blob.test/%s?signature=test", key), nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
