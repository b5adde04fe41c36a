// Package failure holds the structured error model shared by the classifier,
// the retry engine, the recovery coordinator and the notification bridge.
package failure

import "time"

// Category is assigned once at classification time.
type Category string

const (
	CategoryNetwork    Category = "NETWORK"
	CategoryValidation Category = "VALIDATION"
	CategoryServer     Category = "SERVER"
	CategoryClient     Category = "CLIENT"
	CategoryTimeout    Category = "TIMEOUT"
	CategoryUnknown    Category = "UNKNOWN"
)

// Categories lists every category in declaration order.
var Categories = []Category{
	CategoryNetwork,
	CategoryValidation,
	CategoryServer,
	CategoryClient,
	CategoryTimeout,
	CategoryUnknown,
}

// Severity is ordered: SeverityLow < SeverityMedium < SeverityHigh < SeverityCritical.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText keeps the wire and log representation symbolic.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AutoDismiss returns how long a notification of this severity stays visible.
// Zero means the notification is persistent.
func (s Severity) AutoDismiss() time.Duration {
	switch s {
	case SeverityLow:
		return 3 * time.Second
	case SeverityMedium:
		return 5 * time.Second
	case SeverityHigh:
		return 8 * time.Second
	case SeverityCritical:
		return 0
	default:
		return 5 * time.Second
	}
}

// Persistent reports whether failures of this severity must not auto-dismiss.
func (s Severity) Persistent() bool {
	return s == SeverityCritical
}
