// Package analytics keeps per-signature failure statistics and reports
// classified failures to log and storage sinks.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

const DefaultHistorySize = 100

// Stats aggregates every occurrence of one failure signature.
type Stats struct {
	ErrorID           string           `json:"error_id"`
	Signature         string           `json:"signature"`
	Category          failure.Category `json:"category"`
	Severity          failure.Severity `json:"severity"`
	Frequency         int              `json:"frequency"`
	FirstOccurrence   time.Time        `json:"first_occurrence"`
	LastOccurrence    time.Time        `json:"last_occurrence"`
	AverageRetryCount float64          `json:"average_retry_count"`
}

// Tracker records classified failures. The history is bounded; the least
// recently seen signature is evicted first.
type Tracker struct {
	mu        sync.Mutex
	history   *lru.Cache[string, *Stats]
	reporters []Reporter
	logger    *slog.Logger
	now       func() time.Time
	session   string
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithReporters(r ...Reporter) Option {
	return func(t *Tracker) { t.reporters = append(t.reporters, r...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func WithSession(id string) Option {
	return func(t *Tracker) { t.session = id }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(size int, opts ...Option) (*Tracker, error) {
	if size <= 0 {
		size = DefaultHistorySize
	}
	cache, err := lru.New[string, *Stats](size)
	if err != nil {
		return nil, err
	}
	t := &Tracker{
		history: cache,
		logger:  slog.Default(),
		now:     time.Now,
		session: uuid.NewString(),
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Session returns the session id attached to reports.
func (t *Tracker) Session() string { return t.session }

// Track records info and hands a report to every sink.
func (t *Tracker) Track(ctx context.Context, info failure.Info, retryAttempt int) {
	now := t.now()
	sig := info.Signature()

	t.mu.Lock()
	s, ok := t.history.Get(sig)
	if ok {
		s.Frequency++
		s.LastOccurrence = now
		s.AverageRetryCount = (s.AverageRetryCount + float64(retryAttempt)) / 2
	} else {
		s = &Stats{
			ErrorID:           "err_" + uuid.NewString(),
			Signature:         sig,
			Category:          info.Category,
			Severity:          info.Severity,
			Frequency:         1,
			FirstOccurrence:   now,
			LastOccurrence:    now,
			AverageRetryCount: float64(retryAttempt),
		}
		t.history.Add(sig, s)
	}
	errorID := s.ErrorID
	t.mu.Unlock()

	report := &domain.ErrorReport{
		ID:               uuid.NewString(),
		ErrorID:          errorID,
		SessionID:        t.session,
		Signature:        sig,
		Category:         string(info.Category),
		Severity:         info.Severity.String(),
		Message:          info.Message,
		UserMessage:      info.UserMessage,
		ErrorCode:        info.ErrorCode,
		TechnicalDetails: info.TechnicalDetails,
		Suggestions:      append([]string(nil), info.Suggestions...),
		RetryAttempt:     retryAttempt,
		NetworkStatus:    networkStatus(info),
		CreatedAt:        now,
	}
	if req := RequestFrom(ctx); req != nil {
		if form, err := json.Marshal(Sanitize(req)); err == nil {
			report.Form = form
		}
	}

	for _, r := range t.reporters {
		if err := r.Report(ctx, report); err != nil {
			t.logger.Warn("Failed to report error", "error_id", errorID, "error", err)
		}
	}
}

// networkStatus infers connectivity from the failure itself.
func networkStatus(info failure.Info) domain.NetworkStatus {
	msg := strings.ToLower(info.Message + " " + info.UserMessage)
	switch {
	case info.Category == failure.CategoryNetwork && strings.Contains(msg, "offline"):
		return domain.NetworkOffline
	case info.Category == failure.CategoryTimeout || strings.Contains(msg, "timed out"):
		return domain.NetworkSlow
	default:
		return domain.NetworkOnline
	}
}

// All returns the tracked signatures, oldest first.
func (t *Tracker) All() []Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Stats, 0, t.history.Len())
	for _, k := range t.history.Keys() {
		if s, ok := t.history.Peek(k); ok {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FirstOccurrence.Before(out[j].FirstOccurrence)
	})
	return out
}

// MostFrequent returns up to n signatures by descending frequency.
func (t *Tracker) MostFrequent(n int) []Stats {
	all := t.All()
	sort.SliceStable(all, func(i, j int) bool { return all[i].Frequency > all[j].Frequency })
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

type requestKey struct{}

// ContextWithRequest attaches the request being generated so reports can
// carry a sanitized copy.
func ContextWithRequest(ctx context.Context, req *domain.ItineraryRequest) context.Context {
	return context.WithValue(ctx, requestKey{}, req)
}

func RequestFrom(ctx context.Context) *domain.ItineraryRequest {
	req, _ := ctx.Value(requestKey{}).(*domain.ItineraryRequest)
	return req
}
