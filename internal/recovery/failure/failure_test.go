package failure

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityLow < SeverityMedium && SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Fatal("severity levels are not ordered")
	}
}

func TestSeverityAutoDismiss(t *testing.T) {
	tests := []struct {
		sev        Severity
		want       time.Duration
		persistent bool
	}{
		{SeverityLow, 3 * time.Second, false},
		{SeverityMedium, 5 * time.Second, false},
		{SeverityHigh, 8 * time.Second, false},
		{SeverityCritical, 0, true},
	}
	for _, tt := range tests {
		if got := tt.sev.AutoDismiss(); got != tt.want {
			t.Errorf("%s: AutoDismiss() = %v, want %v", tt.sev, got, tt.want)
		}
		if got := tt.sev.Persistent(); got != tt.persistent {
			t.Errorf("%s: Persistent() = %v, want %v", tt.sev, got, tt.persistent)
		}
	}
}

func TestInfoSignature(t *testing.T) {
	info := Info{Category: CategoryNetwork, Message: "Failed to fetch"}
	if got := info.Signature(); got != "NETWORK-Failed to fetch" {
		t.Errorf("Signature() = %q", got)
	}
}

func TestInfoValidate(t *testing.T) {
	ok := Info{Category: CategoryValidation, UserMessage: "fix it", Suggestions: []string{"check"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := ok
	bad.CanRetry = true
	if err := bad.Validate(); !errors.Is(err, ErrInvalidInfo) {
		t.Errorf("expected ErrInvalidInfo for retryable validation error, got %v", err)
	}

	empty := Info{Category: CategoryNetwork, Suggestions: []string{"x"}}
	if err := empty.Validate(); err == nil {
		t.Error("expected error for empty user message")
	}
}

func TestInfoCloneDoesNotShare(t *testing.T) {
	orig := Info{Suggestions: []string{"a"}}
	c := orig.Clone()
	c.Suggestions[0] = "b"
	if orig.Suggestions[0] != "a" {
		t.Error("Clone shares the suggestions slice")
	}
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("remote: %w", &ServerError{Status: 503})
	if got := StatusOf(wrapped); got != 503 {
		t.Errorf("StatusOf = %d, want 503", got)
	}
	if got := StatusOf(errors.New("plain")); got != 0 {
		t.Errorf("StatusOf(plain) = %d, want 0", got)
	}
	if got := StatusOf(nil); got != 0 {
		t.Errorf("StatusOf(nil) = %d, want 0", got)
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	root := errors.New("dial tcp: refused")
	err := fmt.Errorf("generate: %w", &NetworkError{Kind: NetworkRefused, Err: root})

	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatal("expected NetworkError in chain")
	}
	if ne.Kind != NetworkRefused {
		t.Errorf("kind = %s", ne.Kind)
	}
	if !errors.Is(err, root) {
		t.Error("expected root cause in chain")
	}

	pe := &PathwayError{Code: CodeDownloadError, Message: "disk full"}
	if pe.Error() != "DOWNLOAD_ERROR: disk full" {
		t.Errorf("PathwayError.Error() = %q", pe.Error())
	}
}
