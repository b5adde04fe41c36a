package failure

import (
	"errors"
	"fmt"
	"slices"
)

// FieldError is one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Info is the canonical structured error produced by classification.
type Info struct {
	Category          Category     `json:"category"`
	Severity          Severity     `json:"severity"`
	Message           string       `json:"message"`
	UserMessage       string       `json:"user_message"`
	Suggestions       []string     `json:"suggestions"`
	CanRetry          bool         `json:"can_retry"`
	FallbackAvailable bool         `json:"fallback_available"`
	TechnicalDetails  string       `json:"technical_details,omitempty"`
	ErrorCode         string       `json:"error_code,omitempty"`
	FieldErrors       []FieldError `json:"field_errors,omitempty"`
}

// Signature is the recovery signature used to track repeated failures.
func (i Info) Signature() string {
	return string(i.Category) + "-" + i.Message
}

// Clone returns a copy that does not share slices with the receiver.
func (i Info) Clone() Info {
	c := i
	c.Suggestions = slices.Clone(i.Suggestions)
	c.FieldErrors = slices.Clone(i.FieldErrors)
	return c
}

var ErrInvalidInfo = errors.New("invalid error info")

// Validate checks the invariants every classified error must hold.
func (i Info) Validate() error {
	if i.UserMessage == "" {
		return fmt.Errorf("%w: empty user message", ErrInvalidInfo)
	}
	if len(i.Suggestions) == 0 {
		return fmt.Errorf("%w: no suggestions", ErrInvalidInfo)
	}
	if i.Category == CategoryValidation && (i.CanRetry || i.FallbackAvailable) {
		return fmt.Errorf("%w: validation errors are neither retryable nor recoverable by fallback", ErrInvalidInfo)
	}
	return nil
}

// Error lets an Info travel through error returns when a caller needs to.
func (i Info) Error() string {
	if i.Message != "" {
		return fmt.Sprintf("%s: %s", i.Category, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Category, i.UserMessage)
}

// InfoError wraps an Info so it can be returned as an error and recovered with errors.As.
type InfoError struct {
	Info Info
}

func (e *InfoError) Error() string { return e.Info.Error() }
