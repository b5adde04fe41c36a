package coordinator

import "github.com/vietddude/itinerary/internal/recovery/failure"

// Policy holds the escalation thresholds. Prior attempts are counted per
// recovery signature before the current call.
type Policy struct {
	// NETWORK failures go straight to fallback once prior attempts exceed this.
	EagerNetworkAfter int `yaml:"eager_network_after"`
	// Any failure goes straight to fallback once prior attempts exceed this.
	EagerAnyAfter int `yaml:"eager_any_after"`
	// CRITICAL failures go straight to fallback.
	EagerOnCritical bool `yaml:"eager_on_critical"`

	BaseRetriesNetwork int `yaml:"base_retries_network"`
	BaseRetriesOther   int `yaml:"base_retries_other"`

	// ResetOnSuccess clears a signature's history once primary or fallback succeeds.
	ResetOnSuccess bool `yaml:"reset_on_success"`
}

// DefaultPolicy returns the thresholds the product shipped with.
func DefaultPolicy() Policy {
	return Policy{
		EagerNetworkAfter:  1,
		EagerAnyAfter:      2,
		EagerOnCritical:    true,
		BaseRetriesNetwork: 3,
		BaseRetriesOther:   2,
		ResetOnSuccess:     true,
	}
}

// EagerFallback reports whether to skip the primary and invoke the fallback directly.
func (p Policy) EagerFallback(info failure.Info, prior int) bool {
	if info.Category == failure.CategoryNetwork && prior > p.EagerNetworkAfter {
		return true
	}
	if p.EagerOnCritical && info.Severity == failure.SeverityCritical {
		return true
	}
	return prior > p.EagerAnyAfter
}

// RetryCount returns max(1, base - prior/2).
func (p Policy) RetryCount(info failure.Info, prior int) int {
	base := p.BaseRetriesOther
	if info.Category == failure.CategoryNetwork {
		base = p.BaseRetriesNetwork
	}
	return max(1, base-prior/2)
}
