package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"financial_report/pkg/models"
)

// ErrNotFound is returned when no report exists for an id.
var ErrNotFound = errors.New("REPORT_NOT_FOUND")

// ReportStore persists processed reports.
type ReportStore interface {
	Save(ctx context.Context, report *models.StoredReport) error
	Load(ctx context.Context, id string) (*models.StoredReport, error)
}

// ReportRepo stores reports in Postgres with the document as JSONB.
type ReportRepo struct {
	pool *pgxpool.Pool
}

// NewReportRepo creates a repository on the given pool.
func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Save upserts the report by id.
func (r *ReportRepo) Save(ctx context.Context, report *models.StoredReport) error {
	if r.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
		INSERT INTO reports (id, company, schema_tag, source_file, document, html, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			company = EXCLUDED.company,
			schema_tag = EXCLUDED.schema_tag,
			source_file = EXCLUDED.source_file,
			document = EXCLUDED.document,
			html = EXCLUDED.html,
			warnings = EXCLUDED.warnings;
	`
	_, err = r.pool.Exec(ctx, query,
		report.ID, report.Company, report.SchemaTag, report.SourceFile,
		[]byte(report.Document), report.HTML, warnings, report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Load fetches one report, or ErrNotFound.
func (r *ReportRepo) Load(ctx context.Context, id string) (*models.StoredReport, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT id, company, schema_tag, source_file, document, html, warnings, created_at FROM reports WHERE id = $1`

	var (
		rep      models.StoredReport
		doc      []byte
		warnings []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.Company, &rep.SchemaTag, &rep.SourceFile, &doc, &rep.HTML, &warnings, &rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	rep.Document = doc
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &rep.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	return &rep, nil
}

// Purge deletes reports created before the cutoff.
func (r *ReportRepo) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("database pool not initialized")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge reports: %w", err)
	}
	return tag.RowsAffected(), nil
}
