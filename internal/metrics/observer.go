package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/notify"
	"github.com/vietddude/itinerary/internal/recovery/coordinator"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// Observer feeds recovery events into the Prometheus vectors.
type Observer struct{}

var _ coordinator.Observer = Observer{}

func (Observer) ObserveRetry(info failure.Info, _ int, delay time.Duration) {
	RetriesTotal.WithLabelValues(string(info.Category)).Inc()
	RetryDelay.Observe(delay.Seconds())
}

func (Observer) ObserveOutcome(info failure.Info, method coordinator.Method, success, eager bool) {
	result := "failure"
	if success {
		result = "success"
	}
	RecoveryOutcomes.WithLabelValues(string(method), result).Inc()
	if method == coordinator.MethodFallback {
		FallbackInvocations.WithLabelValues(string(info.Category), strconv.FormatBool(eager)).Inc()
	}
}

// Track counts a classified failure. It satisfies coordinator.Tracker.
func (Observer) Track(_ context.Context, info failure.Info, _ int) {
	ErrorsClassified.WithLabelValues(string(info.Category), info.Severity.String()).Inc()
}

// NotificationShown is a notify.Manager OnShow hook.
func NotificationShown(n notify.Notification) {
	NotificationsShown.WithLabelValues(string(n.Category), n.Severity.String()).Inc()
}

// instrumented records latency of every Generate call.
type instrumented struct {
	coordinator.Pathway
}

// InstrumentPathway wraps p so its latency is recorded.
func InstrumentPathway(p coordinator.Pathway) coordinator.Pathway {
	return instrumented{Pathway: p}
}

func (p instrumented) Generate(ctx context.Context, req *domain.ItineraryRequest) (*domain.Document, error) {
	start := time.Now()
	doc, err := p.Pathway.Generate(ctx, req)
	result := "success"
	if err != nil {
		result = "failure"
	}
	PathwayLatency.WithLabelValues(string(p.Name()), result).Observe(time.Since(start).Seconds())
	return doc, err
}
