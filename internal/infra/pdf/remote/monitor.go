package remote

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Status represents the health state of the remote service as seen by the client.
type Status string

const (
	StatusHealthy   Status = "healthy"   // Service is working normally
	StatusDegraded  Status = "degraded"  // Service is slow but working
	StatusThrottled Status = "throttled" // Service is rate limiting
	StatusBlocked   Status = "blocked"   // Service refused this client
)

// MonitorStats holds monitoring statistics for the remote service.
type MonitorStats struct {
	Status           Status        `json:"status"`
	AverageLatency   time.Duration `json:"average_latency"`
	Successes        int           `json:"successes"`
	Failures         int           `json:"failures"`
	ErrorRate        float64       `json:"error_rate"`
	ThrottleCount429 int           `json:"throttle_count_429"`
	ThrottleCount403 int           `json:"throttle_count_403"`
	RetryAfter       time.Duration `json:"retry_after"`
	LastSuccessAt    time.Time     `json:"last_success_at"`
	LastFailureAt    time.Time     `json:"last_failure_at"`
}

// Monitor tracks latency, failures and throttling of the remote service.
type Monitor struct {
	mu  sync.RWMutex
	now func() time.Time

	recentLatencies  []time.Duration
	maxLatencyWindow int

	successes     int
	failures      int
	lastSuccessAt time.Time
	lastFailureAt time.Time

	status429Count     int
	status403Count     int
	throttlePatterns   []string
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	throttleAfter         int
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		now:              time.Now,
		recentLatencies:  make([]time.Duration, 0, 100),
		maxLatencyWindow: 100,
		throttlePatterns: []string{
			"rate limit exceeded",
			"too many requests",
			"quota exceeded",
		},
		slowResponseThreshold: 3 * time.Second,
		throttleAfter:         5,
	}
}

// RecordSuccess records a successful generation with its latency.
func (m *Monitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
	m.successes++
	m.lastSuccessAt = m.now()
}

// RecordFailure records a failed generation.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	m.lastFailureAt = m.now()
}

// RecordThrottle records a 429 or 403 response. retryAfter is the raw
// Retry-After header, either seconds or an HTTP date.
func (m *Monitor) RecordThrottle(statusCode int, retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.lastThrottleTime = now

	switch statusCode {
	case http.StatusTooManyRequests:
		m.status429Count++
		m.retryAfterDuration = parseRetryAfter(retryAfter, now)
	case http.StatusForbidden:
		m.status403Count++
		m.retryAfterDuration = 10 * time.Minute
	}
}

func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Minute
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return time.Minute
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (m *Monitor) DetectThrottlePattern(message string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(message)
	for _, pattern := range m.throttlePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Status returns the current status of the remote service.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	since := m.now().Sub(m.lastThrottleTime)

	if m.status403Count > 0 && since < m.retryAfterDuration {
		return StatusBlocked
	}
	if m.status429Count > m.throttleAfter && since < m.retryAfterDuration {
		return StatusThrottled
	}
	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}
	return StatusHealthy
}

// RetryAfter returns remaining time before the service accepts requests again.
func (m *Monitor) RetryAfter() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retryAfterLocked()
}

func (m *Monitor) retryAfterLocked() time.Duration {
	if m.retryAfterDuration > 0 {
		if remaining := m.retryAfterDuration - m.now().Sub(m.lastThrottleTime); remaining > 0 {
			return remaining
		}
	}
	return 0
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := MonitorStats{
		Status:           m.statusLocked(),
		AverageLatency:   m.averageLatencyLocked(),
		Successes:        m.successes,
		Failures:         m.failures,
		ThrottleCount429: m.status429Count,
		ThrottleCount403: m.status403Count,
		RetryAfter:       m.retryAfterLocked(),
		LastSuccessAt:    m.lastSuccessAt,
		LastFailureAt:    m.lastFailureAt,
	}
	if total := m.successes + m.failures; total > 0 {
		stats.ErrorRate = float64(m.failures) / float64(total)
	}
	return stats
}
