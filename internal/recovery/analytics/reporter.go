package analytics

import (
	"context"
	"log/slog"

	"github.com/vietddude/itinerary/internal/core/domain"
)

// Reporter is a sink for error reports.
type Reporter interface {
	Report(ctx context.Context, r *domain.ErrorReport) error
}

// LogReporter writes every report, technical details included, to a logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (l LogReporter) Report(ctx context.Context, r *domain.ErrorReport) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "Error report",
		"error_id", r.ErrorID,
		"session_id", r.SessionID,
		"category", r.Category,
		"severity", r.Severity,
		"code", r.ErrorCode,
		"message", r.Message,
		"retry_attempt", r.RetryAttempt,
		"network_status", r.NetworkStatus,
		"technical_details", r.TechnicalDetails,
	)
	return nil
}

// ReportStore persists reports.
type ReportStore interface {
	Save(ctx context.Context, r *domain.ErrorReport) error
}

// StoreReporter adapts a ReportStore to a Reporter.
type StoreReporter struct {
	Store ReportStore
}

func (s StoreReporter) Report(ctx context.Context, r *domain.ErrorReport) error {
	return s.Store.Save(ctx, r)
}
