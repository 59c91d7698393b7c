package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hararihq/prosperity/internal/common"
	"github.com/hararihq/prosperity/internal/dbx"
	"github.com/hararihq/prosperity/internal/server/models"
)

const defaultListLimit = 50

const reportColumns = `
	id, account_id, name, report_type, type, receiver_name, objective, description,
	importance, main_points, sources, roles, trends, themes, implications, scenarios,
	future_plans, approving_body, sender_name, role, date, attachments, link_attachment,
	status, created_at, updated_at
`

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	attachments, err := json.Marshal(emptyIfNil(report.Attachments))
	if err != nil {
		return nil, fmt.Errorf("attachments marshal error: %w", err)
	}

	status := report.Status
	if status == "" {
		status = models.ReportStatusDraft
	}

	query := `
		INSERT INTO reports (
			account_id, name, report_type, type, receiver_name, objective, description,
			importance, main_points, sources, roles, trends, themes, implications,
			scenarios, future_plans, approving_body, sender_name, role, date,
			attachments, link_attachment, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23)
		RETURNING ` + reportColumns

	row := r.db.QueryRowContext(ctx, query,
		report.AccountID, report.Name, report.ReportType, report.Type, report.ReceiverName,
		report.Objective, report.Description, report.Importance, report.MainPoints,
		report.Sources, report.Roles, report.Trends, report.Themes, report.Implications,
		report.Scenarios, report.FuturePlans, report.ApprovingBody, report.SenderName,
		report.Role, report.Date, attachments, report.LinkAttachment, status)

	created, err := scanReport(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return report, nil
}

func (r *PostgresRepository) List(ctx context.Context, accountID string, filter ListFilter) ([]*models.Report, int64, error) {
	where := []string{"account_id = $1"}
	args := []any{accountID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(name ILIKE $%d OR report_type ILIKE $%d OR receiver_name ILIKE $%d OR objective ILIKE $%d OR description ILIKE $%d)",
			n, n, n, n, n))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT count(*) FROM reports WHERE ` + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := `SELECT ` + reportColumns + ` FROM reports WHERE ` + clause +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", limitPos, offsetPos)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, report *models.Report) (*models.Report, error) {
	query := `
		UPDATE reports
		SET name = $2, report_type = $3, type = $4, receiver_name = $5, objective = $6,
		    description = $7, importance = $8, main_points = $9, sources = $10,
		    roles = $11, trends = $12, themes = $13, implications = $14, scenarios = $15,
		    future_plans = $16, approving_body = $17, sender_name = $18, role = $19,
		    date = $20, link_attachment = $21, status = $22, updated_at = now()
		WHERE id = $1
		RETURNING ` + reportColumns

	row := r.db.QueryRowContext(ctx, query,
		report.ID, report.Name, report.ReportType, report.Type, report.ReceiverName,
		report.Objective, report.Description, report.Importance, report.MainPoints,
		report.Sources, report.Roles, report.Trends, report.Themes, report.Implications,
		report.Scenarios, report.FuturePlans, report.ApprovingBody, report.SenderName,
		report.Role, report.Date, report.LinkAttachment, report.Status)

	updated, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reports WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// AddAttachments appends keys with a jsonb concatenation, keeping the
// append atomic relative to concurrent uploads to the same report.
func (r *PostgresRepository) AddAttachments(ctx context.Context, id string, keys []string) error {
	blob, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("attachments marshal error: %w", err)
	}

	query := `
		UPDATE reports
		SET attachments = attachments || $2::jsonb, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, blob)
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

// RemoveAttachment filters the key out of the jsonb array. The WHERE clause
// requires the key to be present so the bool result reflects actual removal.
func (r *PostgresRepository) RemoveAttachment(ctx context.Context, id string, key string) (bool, error) {
	query := `
		UPDATE reports
		SET attachments = (
			SELECT coalesce(jsonb_agg(elem), '[]'::jsonb)
			FROM jsonb_array_elements_text(attachments) AS t(elem)
			WHERE elem <> $2
		),
		updated_at = now()
		WHERE id = $1 AND attachments ? $2
	`
	res, err := r.db.ExecContext(ctx, query, id, key)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) AttachmentKeysForAccount(ctx context.Context, accountID string) ([]string, error) {
	query := `
		SELECT elem
		FROM reports, jsonb_array_elements_text(attachments) AS t(elem)
		WHERE account_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.Report, error) {
	report := &models.Report{}
	var attachments []byte

	err := row.Scan(
		&report.ID, &report.AccountID, &report.Name, &report.ReportType, &report.Type,
		&report.ReceiverName, &report.Objective, &report.Description, &report.Importance,
		&report.MainPoints, &report.Sources, &report.Roles, &report.Trends, &report.Themes,
		&report.Implications, &report.Scenarios, &report.FuturePlans, &report.ApprovingBody,
		&report.SenderName, &report.Role, &report.Date, &attachments, &report.LinkAttachment,
		&report.Status, &report.CreatedAt, &report.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &report.Attachments); err != nil {
			return nil, fmt.Errorf("attachments unmarshal error: %w", err)
		}
	}
	if report.Attachments == nil {
		report.Attachments = []string{}
	}

	return report, nil
}

func emptyIfNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
