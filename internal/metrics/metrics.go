package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrorsClassified tracks classified failures by category and severity
	ErrorsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itinerary_errors_classified_total",
			Help: "Total number of classified failures",
		},
		[]string{"category", "severity"},
	)

	// RecoveryOutcomes tracks how recovery flows ended
	RecoveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itinerary_recovery_outcomes_total",
			Help: "Total number of recovery flows by method and result",
		},
		[]string{"method", "result"},
	)

	// RetriesTotal tracks primary pathway retries
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itinerary_retries_total",
			Help: "Total number of primary pathway retries",
		},
		[]string{"category"},
	)

	// RetryDelay tracks the backoff waited before each retry
	RetryDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "itinerary_retry_delay_seconds",
			Help:    "Backoff delay before a retry in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
		},
	)

	// FallbackInvocations tracks fallback pathway use
	FallbackInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itinerary_fallback_invocations_total",
			Help: "Total number of fallback invocations",
		},
		[]string{"category", "eager"},
	)

	// PathwayLatency tracks document generation latency
	PathwayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "itinerary_pathway_latency_seconds",
			Help:    "Document generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pathway", "result"},
	)

	// NotificationsShown tracks notifications by title and severity
	NotificationsShown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itinerary_notifications_shown_total",
			Help: "Total number of notifications shown",
		},
		[]string{"category", "severity"},
	)

	// DocumentsServed tracks documents rendered by the document service
	DocumentsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "itinerary_docservice_requests_total",
			Help: "Total number of document service requests",
		},
		[]string{"route", "status"},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "itinerary_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
