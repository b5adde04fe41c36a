package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/itinerary/internal/control"
	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/coordinator"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/recovery/guidance"
	"github.com/vietddude/itinerary/internal/validation"
)

const jsonItinerary = `{
  "customer": {"name": "Rahul Sharma", "email": "rahul@example.com", "phone": "+91 98765 43210"},
  "trip": {"title": "Singapore Escape", "destination": "Singapore", "travelers": 2}
}`

const yamlItinerary = `
customer:
  name: Rahul Sharma
  email: rahul@example.com
trip:
  title: Singapore Escape
  destination: Singapore
  travelers: 2
`

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
	}{
		{"json", jsonItinerary, ".json"},
		{"yaml", yamlItinerary, ".yaml"},
		{"yaml without extension", yamlItinerary, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeRequest([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if req.Customer.Name != "Rahul Sharma" || req.Trip.Destination != "Singapore" || req.Trip.Travelers != 2 {
				t.Errorf("req = %+v", req)
			}
		})
	}

	if _, err := decodeRequest([]byte("{broken"), ".json"); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestReadRequestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trip.yml")
	if err := os.WriteFile(path, []byte(yamlItinerary), 0o600); err != nil {
		t.Fatal(err)
	}
	req, err := readRequest(path)
	if err != nil || req.Trip.Title != "Singapore Escape" {
		t.Fatalf("req = %+v, err = %v", req, err)
	}
	if _, err := readRequest(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPrintValidation(t *testing.T) {
	req, _ := decodeRequest([]byte(jsonItinerary), ".json")
	res := validation.ValidateItinerary(req, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	printValidation(&buf, res)
	out := buf.String()
	if !strings.HasPrefix(out, res.Summary) {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "Start Date") || !strings.Contains(out, "Start date is required") {
		t.Errorf("missing start date issue: %q", out)
	}
}

func TestPrintOutcome_FollowsRecovery(t *testing.T) {
	info := failure.Info{
		Category:    failure.CategoryServer,
		Severity:    failure.SeverityHigh,
		UserMessage: "The server is temporarily unavailable.",
	}
	success := &control.Outcome{
		Generation: coordinator.Generation{
			Result:  coordinator.Result[*domain.Document]{Success: true, Method: coordinator.MethodPrimary},
			Pathway: domain.PathwayLocal,
		},
		Path: "/tmp/out/Singapore.pdf",
	}
	failed := &control.Outcome{
		Generation: coordinator.Generation{Pathway: domain.PathwayRemote, Initial: &info},
		Failure:    &info,
		Resolution: guidance.ResolutionSteps(info),
		FollowUp:   success,
	}

	var buf bytes.Buffer
	final := printOutcome(&buf, failed)
	if final != success {
		t.Fatal("printOutcome did not follow the recovery action")
	}
	out := buf.String()
	for _, want := range []string{"Server", "After recovery action", "PDF saved to /tmp/out/Singapore.pdf"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
