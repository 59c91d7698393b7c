// Package reports declares the repository contract for report documents.
package reports

import (
	"context"

	"github.com/hararihq/prosperity/internal/server/models"
)

// ListFilter narrows and pages a report listing. Zero values mean "no
// constraint"; Limit of 0 falls back to the repository default.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// Repository defines persistence operations for reports. Lookups return
// common.ErrorNotFound when no row matches. Ownership is enforced one level
// up, in the service; the repository only scopes listing queries.
type Repository interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)

	// List returns the account's reports, newest first, plus the total count
	// matching the filter (for pagination).
	List(ctx context.Context, accountID string, filter ListFilter) ([]*models.Report, int64, error)

	// Update replaces all mutable fields of the report.
	Update(ctx context.Context, report *models.Report) (*models.Report, error)

	Delete(ctx context.Context, id string) error

	// AddAttachments appends object-storage keys to the report's attachment
	// list in one statement.
	AddAttachments(ctx context.Context, id string, keys []string) error

	// RemoveAttachment removes one key and reports whether it was present.
	RemoveAttachment(ctx context.Context, id string, key string) (bool, error)

	// AttachmentKeysForAccount returns every attachment key across the
	// account's reports; used to clean up object storage before an account
	// deletion cascades.
	AttachmentKeysForAccount(ctx context.Context, accountID string) ([]string, error)
}
