package classify

import (
	"time"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// RetryPolicy is derived from an Info; it is never stored.
type RetryPolicy struct {
	ShouldRetry bool
	MaxRetries  int
	RetryDelay  time.Duration
}

// Policy returns the retry policy for info's category.
func Policy(info failure.Info) RetryPolicy {
	if !info.CanRetry || info.Category == failure.CategoryValidation {
		return RetryPolicy{}
	}
	switch info.Category {
	case failure.CategoryNetwork:
		return RetryPolicy{ShouldRetry: true, MaxRetries: 3, RetryDelay: 2 * time.Second}
	case failure.CategoryServer:
		return RetryPolicy{ShouldRetry: true, MaxRetries: 2, RetryDelay: 5 * time.Second}
	case failure.CategoryTimeout:
		return RetryPolicy{ShouldRetry: true, MaxRetries: 2, RetryDelay: 3 * time.Second}
	default:
		return RetryPolicy{}
	}
}

// ShouldShowFallback reports whether the fallback action deserves attention.
func ShouldShowFallback(info failure.Info) bool {
	return info.FallbackAvailable && info.Severity != failure.SeverityLow
}

// CanRetryOperation reports whether a retry action may be offered.
func CanRetryOperation(info failure.Info) bool {
	return info.CanRetry && info.Category != failure.CategoryValidation
}
