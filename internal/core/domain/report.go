package domain

import "time"

// NetworkStatus is the connectivity observed when a failure was reported.
type NetworkStatus string

const (
	NetworkOnline  NetworkStatus = "online"
	NetworkOffline NetworkStatus = "offline"
	NetworkSlow    NetworkStatus = "slow"
)

// ErrorReport is one classified failure as persisted for monitoring.
type ErrorReport struct {
	ID               string        `json:"id"                db:"id"`
	ErrorID          string        `json:"error_id"          db:"error_id"`
	SessionID        string        `json:"session_id"        db:"session_id"`
	Signature        string        `json:"signature"         db:"signature"`
	Category         string        `json:"category"          db:"category"`
	Severity         string        `json:"severity"          db:"severity"`
	Message          string        `json:"message"           db:"message"`
	UserMessage      string        `json:"user_message"      db:"user_message"`
	ErrorCode        string        `json:"error_code"        db:"error_code"`
	TechnicalDetails string        `json:"technical_details" db:"technical_details"`
	Suggestions      []string      `json:"suggestions"       db:"-"`
	RetryAttempt     int           `json:"retry_attempt"     db:"retry_attempt"`
	NetworkStatus    NetworkStatus `json:"network_status"    db:"network_status"`
	Form             []byte        `json:"form,omitempty"    db:"form"`
	CreatedAt        time.Time     `json:"created_at"        db:"created_at"`
}
