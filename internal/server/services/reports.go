package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/logging"
	"github.com/hararihq/prosperity/internal/server/blob"
	"github.com/hararihq/prosperity/internal/server/models"
	"github.com/hararihq/prosperity/internal/server/repositories/repomanager"
	"github.com/hararihq/prosperity/internal/server/repositories/reports"
)

// allowedAttachmentTypes maps permitted upload extensions to the content type
// the object is stored under.
var allowedAttachmentTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// Upload describes one incoming attachment file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ReportService implements owner-scoped CRUD over reports plus attachment
// handling. Every operation takes the acting account's id and refuses —
// with ErrorForbidden — to touch a report owned by someone else.
type ReportService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  blob.Store
	logger logging.Logger
}

// NewReportService constructs a ReportService. blobs may be nil when object
// storage is not configured; attachment operations then fail with
// ErrorInternal.
func NewReportService(db *sql.DB, repos repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *ReportService {
	return &ReportService{db: db, repos: repos, blobs: blobs, logger: logger}
}

// getOwned fetches a report and enforces ownership.
func (s *ReportService) getOwned(ctx context.Context, accountID, reportID string) (*models.Report, error) {
	report, err := s.repos.Reports(s.db).GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.AccountID != accountID {
		return nil, common.ErrorForbidden
	}
	return report, nil
}

// Create stores a new report owned by accountID. Status defaults to draft;
// anything other than the two known statuses is rejected as a validation
// error.
func (s *ReportService) Create(ctx context.Context, accountID string, report *models.Report) (*models.Report, error) {
	report.AccountID = accountID
	if report.Status == "" {
		report.Status = models.ReportStatusDraft
	}
	if report.Status != models.ReportStatusDraft && report.Status != models.ReportStatusCompleted {
		return nil, common.ErrValidation
	}
	report.Attachments = []string{}
	return s.repos.Reports(s.db).Create(ctx, report)
}

// Get returns one owned report.
func (s *ReportService) Get(ctx context.Context, accountID, reportID string) (*models.Report, error) {
	return s.getOwned(ctx, accountID, reportID)
}

// List returns a page of the account's reports plus the total count.
func (s *ReportService) List(ctx context.Context, accountID string, filter reports.ListFilter) ([]*models.Report, int64, error) {
	if filter.Status != "" &&
		filter.Status != models.ReportStatusDraft && filter.Status != models.ReportStatusCompleted {
		return nil, 0, common.ErrValidation
	}
	return s.repos.Reports(s.db).List(ctx, accountID, filter)
}

// Update replaces the mutable fields of an owned report. The attachment list
// is managed exclusively through AddAttachments/RemoveAttachment and is
// carried over unchanged here.
func (s *ReportService) Update(ctx context.Context, accountID, reportID string, updated *models.Report) (*models.Report, error) {
	existing, err := s.getOwned(ctx, accountID, reportID)
	if err != nil {
		return nil, err
	}

	updated.ID = existing.ID
	updated.AccountID = existing.AccountID
	updated.Attachments = existing.Attachments
	if updated.Status == "" {
		updated.Status = existing.Status
	}
	if updated.Status != models.ReportStatusDraft && updated.Status != models.ReportStatusCompleted {
		return nil, common.ErrValidation
	}

	return s.repos.Reports(s.db).Update(ctx, updated)
}

// Delete removes an owned report and best-effort deletes its stored
// attachment objects.
func (s *ReportService) Delete(ctx context.Context, accountID, reportID string) error {
	report, err := s.getOwned(ctx, accountID, reportID)
	if err != nil {
		return err
	}

	if s.blobs != nil {
		for _, key := range report.Attachments {
			if err := s.blobs.Delete(ctx, key); err != nil {
				s.logger.Warn(ctx, "error deleting attachment object", "key", key, "error", err)
			}
		}
	}

	return s.repos.Reports(s.db).Delete(ctx, reportID)
}

// AddAttachments uploads files to object storage under fresh keys and appends
// those keys to an owned report. Extensions outside the allowlist are
// rejected up front, before anything is uploaded.
func (s *ReportService) AddAttachments(ctx context.Context, accountID, reportID string, uploads []Upload) (*models.Report, error) {
	if s.blobs == nil {
		return nil, common.ErrorInternal
	}

	report, err := s.getOwned(ctx, accountID, reportID)
	if err != nil {
		return nil, err
	}

	for _, u := range uploads {
		if _, ok := allowedAttachmentTypes[strings.ToLower(path.Ext(u.Filename))]; !ok {
			return nil, common.ErrValidation
		}
	}

	keys := make([]string, 0, len(uploads))
	for _, u := range uploads {
		ext := strings.ToLower(path.Ext(u.Filename))
		key := fmt.Sprintf("reports/%s/%s%s", report.ID, uuid.NewString(), ext)
		if err := s.blobs.Put(ctx, key, allowedAttachmentTypes[ext], u.Body); err != nil {
			return nil, common.ErrorInternal
		}
		keys = append(keys, key)
	}

	if err := s.repos.Reports(s.db).AddAttachments(ctx, report.ID, keys); err != nil {
		return nil, common.ErrorInternal
	}

	return s.repos.Reports(s.db).GetByID(ctx, report.ID)
}

// RemoveAttachment deletes one attachment, addressed by its filename (the
// last path segment of the stored key). The object is removed from storage
// best-effort after the key leaves the report.
func (s *ReportService) RemoveAttachment(ctx context.Context, accountID, reportID, filename string) (*models.Report, error) {
	report, err := s.getOwned(ctx, accountID, reportID)
	if err != nil {
		return nil, err
	}

	var key string
	for _, k := range report.Attachments {
		if path.Base(k) == filename {
			key = k
			break
		}
	}
	if key == "" {
		return nil, common.ErrorNotFound
	}

	removed, err := s.repos.Reports(s.db).RemoveAttachment(ctx, report.ID, key)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if removed && s.blobs != nil {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn(ctx, "error deleting attachment object", "key", key, "error", err)
		}
	}

	return s.repos.Reports(s.db).GetByID(ctx, report.ID)
}

// AttachmentURL returns a presigned download URL for one attachment of an
// owned report, addressed by filename.
func (s *ReportService) AttachmentURL(ctx context.Context, accountID, reportID, filename string) (string, error) {
	if s.blobs == nil {
		return "", common.ErrorInternal
	}

	report, err := s.getOwned(ctx, accountID, reportID)
	if err != nil {
		return "", err
	}

	for _, key := range report.Attachments {
		if path.Base(key) == filename {
			url, err := s.blobs.PresignGet(ctx, key)
			if err != nil {
				return "", common.ErrorInternal
			}
			return url, nil
		}
	}
	return "", common.ErrorNotFound
}
