package failure

import (
	"errors"
	"fmt"
)

// NetworkKind narrows a network failure.
type NetworkKind string

const (
	NetworkTimeout  NetworkKind = "timeout"
	NetworkDNS      NetworkKind = "dns"
	NetworkRefused  NetworkKind = "refused"
	NetworkTLS      NetworkKind = "tls"
	NetworkOffline  NetworkKind = "offline"
	NetworkNotFound NetworkKind = "not-found"
	NetworkGeneric  NetworkKind = "generic"
)

// Pathway error codes.
const (
	CodeMaxRetriesExceeded = "MAX_RETRIES_EXCEEDED"
	CodeDownloadError      = "DOWNLOAD_ERROR"
	CodeFeatureDisabled    = "FEATURE_DISABLED"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// Names used by TypedError.
const (
	TypeError      = "TypeError"
	ReferenceError = "ReferenceError"
)

// StatusCoder is implemented by failures that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// NetworkError is a transport level failure of a pathway.
type NetworkError struct {
	Kind    NetworkKind
	Message string
	Status  int
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("network error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("network error (%s)", e.Kind)
}

func (e *NetworkError) Unwrap() error   { return e.Err }
func (e *NetworkError) StatusCode() int { return e.Status }

// Timeout satisfies net.Error style checks.
func (e *NetworkError) Timeout() bool { return e.Kind == NetworkTimeout }

// ValidationError reports invalid form data, either from local validation or
// from a 400/422 response of the remote service.
type ValidationError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

func (e *ValidationError) StatusCode() int { return e.Status }

// ServerError is a 5xx or otherwise malformed response from the remote service.
type ServerError struct {
	Status  int
	Message string
	Err     error
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error: status %d", e.Status)
}

func (e *ServerError) Unwrap() error   { return e.Err }
func (e *ServerError) StatusCode() int { return e.Status }

// PathwayError is a pathway failure identified by a code rather than a transport condition.
type PathwayError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *PathwayError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *PathwayError) Unwrap() error   { return e.Err }
func (e *PathwayError) StatusCode() int { return e.Status }

// TypedError is a generic failure raised while assembling a document.
type TypedError struct {
	Name string
	Err  error
}

func (e *TypedError) Error() string {
	if e.Err == nil {
		return e.Name
	}
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *TypedError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried anywhere in err's chain, or 0.
func StatusOf(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(StatusCoder); ok {
			if code := s.StatusCode(); code != 0 {
				return code
			}
		}
	}
	return 0
}
