// Package control wires configuration, pathways and the recovery layer into
// the application used by the CLI and the document service.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/itinerary/internal/core/config"
	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/core/worker"
	"github.com/vietddude/itinerary/internal/infra/pdf/download"
	"github.com/vietddude/itinerary/internal/infra/pdf/local"
	"github.com/vietddude/itinerary/internal/infra/pdf/remote"
	redisclient "github.com/vietddude/itinerary/internal/infra/redis"
	"github.com/vietddude/itinerary/internal/infra/storage/postgres"
	"github.com/vietddude/itinerary/internal/metrics"
	"github.com/vietddude/itinerary/internal/notify"
	"github.com/vietddude/itinerary/internal/recovery/analytics"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/coordinator"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/recovery/guidance"
	"github.com/vietddude/itinerary/internal/server/docservice"
	"github.com/vietddude/itinerary/internal/validation"
)

// Version is reported by the document service.
const Version = "1.0.0"

// App holds every long lived component.
type App struct {
	cfg    *config.AppConfig
	logger *slog.Logger
	now    func() time.Time

	Renderer    *local.Renderer
	Remote      *remote.Client
	Coordinator *coordinator.Coordinator
	Generator   *coordinator.Generator
	Analytics   *analytics.Tracker
	Notifier    *notify.Manager

	db      *postgres.DB
	reports *postgres.ReportRepo
	redis   *redisclient.Client
}

// NewApp connects the optional stores and builds the recovery pipeline.
// Redis backs the recovery history when configured, otherwise it is kept in memory.
func NewApp(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger, now: time.Now}

	reporters := []analytics.Reporter{analytics.LogReporter{Logger: logger}}

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		a.db = db
		a.reports = postgres.NewReportRepo(db)
		reporters = append(reporters, analytics.StoreReporter{Store: a.reports})
		logger.Info("Using PostgreSQL error reports")
	}

	tracker, err := analytics.NewTracker(cfg.Recovery.HistorySize,
		analytics.WithReporters(reporters...),
		analytics.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init analytics: %w", err)
	}
	a.Analytics = tracker

	var history coordinator.HistoryStore
	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		a.redis = rc
		history = rc.History(tracker.Session())
		logger.Info("Using Redis recovery history", "session", tracker.Session())
	} else {
		history = coordinator.NewMemoryHistory()
	}

	observer := metrics.Observer{}
	a.Coordinator = coordinator.New(history, coordinator.Config{
		Policy:    cfg.Policy(),
		Retry:     cfg.RetryOptions(),
		Logger:    logger,
		Observers: []coordinator.Observer{observer},
	})

	a.Renderer = local.NewRenderer(logger)
	a.Remote = remote.NewClient(cfg.RemoteClient(), logger)
	a.Generator = coordinator.NewGenerator(a.Coordinator, validation.Validator(nil), logger,
		metrics.InstrumentPathway(a.Renderer),
		metrics.InstrumentPathway(a.Remote),
	)
	a.Generator.AddTracker(observer)
	a.Generator.AddTracker(tracker)

	a.Notifier = notify.NewManager(notify.ManagerConfig{OnShow: metrics.NotificationShown})
	return a, nil
}

// Outcome is the result of App.Generate.
type Outcome struct {
	coordinator.Generation

	// Path is where the document was saved.
	Path string
	// Failure is the final classified failure, nil on success.
	Failure      *failure.Info
	Notification *notify.Notification
	Resolution   guidance.Resolution
	Help         guidance.Help
	Suggestions  guidance.Suggestions

	// FollowUp is set once a notification action ran another generation.
	FollowUp    *Outcome
	FollowUpErr error
}

// Generate runs one generation with recovery and saves the document to the
// output directory. Failures are returned inside the Outcome; the error is
// reserved for unknown pathways.
func (a *App) Generate(ctx context.Context, req *domain.ItineraryRequest, opts coordinator.GenerateOptions) (*Outcome, error) {
	ctx = analytics.ContextWithRequest(ctx, req)

	gen, err := a.Generator.Generate(ctx, req, opts)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Generation: gen}

	if gen.Success {
		path, err := download.Save(gen.Value, a.cfg.Output.Dir)
		if err != nil {
			info := classify.Classify(err)
			a.Analytics.Track(ctx, info, 0)
			a.fail(ctx, out, req, opts, info)
			return out, nil
		}
		out.Path = path

		var n notify.Notification
		if gen.Method == coordinator.MethodFallback {
			n = a.Notifier.Warning(fmt.Sprintf("%s generation failed; the document was generated with the %s pathway instead.",
				opts.Preferred, gen.Pathway))
		} else {
			n = a.Notifier.Success("PDF generated successfully")
		}
		out.Notification = &n
		return out, nil
	}

	info := failure.Info{Category: failure.CategoryUnknown, Severity: failure.SeverityMedium, Message: "generation failed"}
	switch {
	case gen.Err != nil:
		info = *gen.Err
	case gen.Initial != nil:
		info = *gen.Initial
	}
	a.fail(ctx, out, req, opts, info)
	return out, nil
}

func (a *App) fail(ctx context.Context, out *Outcome, req *domain.ItineraryRequest, opts coordinator.GenerateOptions, info failure.Info) {
	out.Failure = &info
	out.Resolution = guidance.ResolutionSteps(info)
	out.Help = guidance.ContextualHelp(info, req, a.now())
	out.Suggestions = guidance.FallbackSuggestions(info)

	n := a.Notifier.Notify(info, notify.Handlers{
		Retry: func() {
			out.FollowUp, out.FollowUpErr = a.Generate(ctx, req, opts)
		},
		Fallback: func() {
			alt := opts
			alt.Preferred = opts.Preferred.Other()
			alt.NoFallback = true
			out.FollowUp, out.FollowUpErr = a.Generate(ctx, req, alt)
		},
		Alternate: opts.Preferred.Other(),
	})
	out.Notification = &n
}

// HealthSummary reports on the remote pathway and the optional stores.
type HealthSummary struct {
	Remote   remote.ConnectionReport `json:"remote"`
	Database string                  `json:"database"`
	Redis    string                  `json:"redis"`
}

const (
	notConfigured = "not configured"
	reachable     = "ok"
)

// Health checks the remote service and the stores.
func (a *App) Health(ctx context.Context) HealthSummary {
	h := HealthSummary{
		Remote:   a.Remote.ValidateConnection(ctx),
		Database: notConfigured,
		Redis:    notConfigured,
	}
	if a.db != nil {
		h.Database = ping(ctx, a.db.Health)
	}
	if a.redis != nil {
		h.Redis = ping(ctx, a.redis.Ping)
	}
	return h
}

func ping(ctx context.Context, fn func(context.Context) error) string {
	if err := fn(ctx); err != nil {
		return err.Error()
	}
	return reachable
}

// Stats combines recovery history, in-process analytics and stored reports.
type Stats struct {
	History  []coordinator.SignatureStat `json:"history"`
	Frequent []analytics.Stats           `json:"frequent"`
	Stored   []postgres.SignatureCount   `json:"stored,omitempty"`
}

func (a *App) Stats(ctx context.Context, limit int) (Stats, error) {
	var s Stats
	hist, err := a.Coordinator.Stats(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to read recovery history: %w", err)
	}
	s.History = hist
	s.Frequent = a.Analytics.MostFrequent(limit)
	if a.reports != nil {
		stored, err := a.reports.MostFrequent(ctx, limit)
		if err != nil {
			return s, err
		}
		s.Stored = stored
	}
	return s, nil
}

// RecentReports lists stored error reports. It fails when no database is configured.
func (a *App) RecentReports(ctx context.Context, limit int) ([]domain.ErrorReport, error) {
	if a.reports == nil {
		return nil, ErrNoDatabase
	}
	return a.reports.Recent(ctx, limit)
}

var ErrNoDatabase = errors.New("database not configured")

// DocService builds the document service backed by the local renderer.
func (a *App) DocService() *docservice.Server {
	checks := []docservice.Check{{
		Name:     "renderer",
		Critical: true,
		Run: func(ctx context.Context) error {
			_, err := a.Renderer.Generate(ctx, SampleRequest(a.now()))
			return err
		},
	}}
	if a.db != nil {
		checks = append(checks, docservice.Check{Name: "database", Run: a.db.Health})
	}
	if a.redis != nil {
		checks = append(checks, docservice.Check{Name: "redis", Run: a.redis.Ping})
	}
	return docservice.NewServer(docservice.Config{
		Port:     a.cfg.Server.Port,
		GRPCPort: a.cfg.Server.GRPCPort,
		Version:  Version,
	}, a.Renderer, docservice.NewMonitor(checks...), a.logger)
}

// Serve runs the document service until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
		go worker.NewPruner(a.cfg.Database.Retention, a.reports, a.logger).Start(ctx)
	}
	return a.DocService().Run(ctx)
}

// Close releases every connection. It is safe on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.Remote != nil {
		errs = append(errs, a.Remote.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// SampleRequest is a minimal valid itinerary starting a month after now.
func SampleRequest(now time.Time) *domain.ItineraryRequest {
	start := now.AddDate(0, 1, 0)
	return &domain.ItineraryRequest{
		Customer: domain.Customer{Name: "Health Check", Email: "health@example.com", Phone: "+1 555 123 4567"},
		Trip: domain.Trip{
			Title:       "Health Check",
			Destination: "Nowhere",
			StartDate:   start.Format(time.DateOnly),
			EndDate:     start.AddDate(0, 0, 1).Format(time.DateOnly),
			Duration:    "2 Days",
			Travelers:   1,
		},
		Itinerary: domain.Itinerary{Days: []domain.Day{
			{DayNumber: 1, Activities: []domain.Activity{{Name: "Arrival"}}},
			{DayNumber: 2, Activities: []domain.Activity{{Name: "Departure"}}},
		}},
	}
}
