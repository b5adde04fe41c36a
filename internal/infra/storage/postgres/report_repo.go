package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/vietddude/itinerary/internal/core/domain"
)

// ReportRepo persists error reports.
type ReportRepo struct {
	db *DB
}

func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Save inserts a report.
func (r *ReportRepo) Save(ctx context.Context, rep *domain.ErrorReport) error {
	query := `
		INSERT INTO error_reports (
			id, error_id, session_id, signature, category, severity, message, user_message,
			error_code, technical_details, suggestions, retry_attempt, network_status, form, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	var form any
	if len(rep.Form) > 0 {
		form = rep.Form
	}
	_, err := r.db.ExecContext(ctx, query,
		rep.ID, rep.ErrorID, rep.SessionID, rep.Signature, rep.Category, rep.Severity,
		rep.Message, rep.UserMessage, rep.ErrorCode, rep.TechnicalDetails,
		pq.Array(rep.Suggestions), rep.RetryAttempt, string(rep.NetworkStatus), form, rep.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save error report: %w", err)
	}
	return nil
}

type reportRow struct {
	domain.ErrorReport
	Suggestions pq.StringArray `db:"suggestions"`
}

// Recent returns the newest reports first.
func (r *ReportRepo) Recent(ctx context.Context, limit int) ([]domain.ErrorReport, error) {
	query := `
		SELECT id, error_id, session_id, signature, category, severity, message, user_message,
		       error_code, technical_details, suggestions, retry_attempt, network_status,
		       COALESCE(form::text, '') AS form, created_at
		FROM error_reports
		ORDER BY created_at DESC
		LIMIT $1
	`
	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list error reports: %w", err)
	}

	out := make([]domain.ErrorReport, 0, len(rows))
	for _, row := range rows {
		rep := row.ErrorReport
		rep.Suggestions = []string(row.Suggestions)
		out = append(out, rep)
	}
	return out, nil
}

// SignatureCount is the number of reports sharing one signature.
type SignatureCount struct {
	Signature string `db:"signature" json:"signature"`
	Category  string `db:"category"  json:"category"`
	Count     int    `db:"count"     json:"count"`
}

// MostFrequent returns the signatures reported most often.
func (r *ReportRepo) MostFrequent(ctx context.Context, limit int) ([]SignatureCount, error) {
	query := `
		SELECT signature, category, COUNT(*) AS count
		FROM error_reports
		GROUP BY signature, category
		ORDER BY count DESC, signature
		LIMIT $1
	`
	var out []SignatureCount
	if err := r.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("failed to count error reports: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes reports created before the cutoff and returns how many were removed.
func (r *ReportRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM error_reports WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune error reports: %w", err)
	}
	return res.RowsAffected()
}
