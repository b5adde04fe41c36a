package worker

import (
	"context"
	"log/slog"
	"time"
)

// ReportStore deletes stored error reports.
type ReportStore interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Pruner deletes old error reports based on retention policy.
type Pruner struct {
	retention time.Duration
	store     ReportStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, store ReportStore, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		retention: retention,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check every 10% of the retention period, between 1 minute and 1 hour
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	threshold := p.now().Add(-p.retention)

	n, err := p.store.DeleteOlderThan(ctx, threshold)
	if err != nil {
		p.logger.Error("Failed to prune error reports", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("Pruned error reports", "count", n, "before", threshold)
	}
}
