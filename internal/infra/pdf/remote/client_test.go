package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/classify"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/recovery/retry"
)

func testRequest() *domain.ItineraryRequest {
	return &domain.ItineraryRequest{
		Customer: domain.Customer{Name: "Rahul", Email: "rahul@example.com", Phone: "9876543210"},
		Trip:     domain.Trip{Title: "Singapore Escape", Destination: "Singapore", StartDate: "2026-04-10", EndDate: "2026-04-14", Travelers: 2},
	}
}

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Timeout: 2 * time.Second, ClientID: "test-suite", Enabled: true}, nil)
}

func TestClient_GenerateSuccess(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != generatePath || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if a := r.Header.Get("Accept"); a != "application/pdf, application/json" {
			t.Errorf("accept = %q", a)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("user agent = %q", ua)
		}
		if id := r.Header.Get("X-Client-ID"); id != "test-suite" {
			t.Errorf("client id = %q", id)
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(gotRequestID); err != nil {
			t.Errorf("request id %q is not a uuid", gotRequestID)
		}

		var req domain.ItineraryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Trip.Title != "Singapore Escape" {
			t.Errorf("trip title = %q", req.Trip.Title)
		}

		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 test"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	doc, err := c.Generate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc.Data) != "%PDF-1.4 test" || doc.Pathway != domain.PathwayRemote {
		t.Errorf("document = %+v", doc)
	}
	if doc.Filename != "Singapore-Rahul-2026-04-10.pdf" {
		t.Errorf("filename = %q", doc.Filename)
	}
	if doc.RequestID != gotRequestID {
		t.Errorf("request id = %q, header = %q", doc.RequestID, gotRequestID)
	}
	if stats := c.Monitor.Stats(); stats.Successes != 1 || stats.Failures != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestClient_ResponseMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		category    failure.Category
		contains    string
	}{
		{"unprocessable", 422, "application/json", `{"errors":[{"field":"customerEmail","message":"must be a valid email"}]}`,
			failure.CategoryValidation, "customerEmail: must be a valid email"},
		{"bad request text", 400, "text/plain", "bad json", failure.CategoryValidation, "Invalid request data: bad json"},
		{"unauthorized", 401, "application/json", `{"message":"token missing"}`, failure.CategoryClient, "Authentication required: token missing"},
		{"not found", 404, "text/plain", "", failure.CategoryNetwork, "Service not found"},
		{"rate limited", 429, "application/json", `{"error":"slow down"}`, failure.CategoryServer, "Too many requests"},
		{"internal", 500, "application/json", `{"error":"boom","message":"renderer crashed"}`, failure.CategoryServer, "renderer crashed"},
		{"unavailable", 503, "text/plain", "maintenance", failure.CategoryServer, "temporarily down: maintenance"},
		{"broken json", 502, "application/json", `{not json`, failure.CategoryServer, "The server gateway is not responding properly"},
		{"json success", 200, "application/json", `{"success":true}`, failure.CategoryServer, "file info instead of a PDF"},
		{"empty pdf", 200, "application/pdf", "", failure.CategoryServer, "Received empty PDF file"},
		{"html", 200, "text/html", "<html></html>", failure.CategoryServer, "Unexpected response content type: text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Generate(context.Background(), testRequest())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to contain %q", err, tt.contains)
			}
			if info := classify.Classify(err); info.Category != tt.category {
				t.Errorf("category = %s, want %s", info.Category, tt.category)
			}
		})
	}
}

func TestClient_ValidationFieldsCarried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":[{"field":"customerEmail","message":"customerEmail must be a valid email"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), testRequest())
	var ve *failure.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.Status != 422 || len(ve.Fields) != 1 || ve.Fields[0].Field != "customerEmail" {
		t.Errorf("validation error = %+v", ve)
	}

	info := classify.Classify(err)
	if info.CanRetry || info.FallbackAvailable {
		t.Errorf("validation failure must not be retried or escalated: %+v", info)
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond, Enabled: true}, nil)
	_, err := c.Generate(context.Background(), testRequest())

	var ne *failure.NetworkError
	if !errors.As(err, &ne) || ne.Kind != failure.NetworkTimeout {
		t.Fatalf("expected timeout NetworkError, got %v", err)
	}
	if !strings.HasPrefix(ne.Message, "Request timed out after") {
		t.Errorf("message = %q", ne.Message)
	}
	if info := classify.Classify(err); info.Category != failure.CategoryNetwork || !info.CanRetry {
		t.Errorf("info = %+v", info)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Generate(context.Background(), testRequest())
	var ne *failure.NetworkError
	if !errors.As(err, &ne) || ne.Kind != failure.NetworkRefused {
		t.Fatalf("expected refused NetworkError, got %v", err)
	}
	if info := classify.Classify(err); info.Category != failure.CategoryNetwork || !info.FallbackAvailable {
		t.Errorf("info = %+v", info)
	}
}

func TestClient_BlockedAfterForbidden(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"client not allowed"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 2; i++ {
		_, err := client.Generate(context.Background(), testRequest())
		var pe *failure.PathwayError
		if !errors.As(err, &pe) || pe.Code != failure.CodeUnauthorized || pe.Status != http.StatusForbidden {
			t.Fatalf("call %d: err = %v, want UNAUTHORIZED 403", i+1, err)
		}
		info := classify.Classify(err)
		if info.Category != failure.CategoryClient || info.CanRetry {
			t.Errorf("call %d: category = %s canRetry = %v", i+1, info.Category, info.CanRetry)
		}
		if retry.ShouldRetryError(err, 1) {
			t.Errorf("call %d: access denial must not be retried", i+1)
		}
	}

	if calls != 1 {
		t.Errorf("service contacted %d times, want 1 while blocked", calls)
	}
	if got := client.Monitor.Status(); got != StatusBlocked {
		t.Errorf("monitor status = %s, want %s", got, StatusBlocked)
	}
}

func TestClient_ThrottledShortCircuits(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 6; i++ {
		_, _ = client.Generate(context.Background(), testRequest())
	}
	_, err := client.Generate(context.Background(), testRequest())

	if calls != 6 {
		t.Errorf("service contacted %d times, want 6", calls)
	}
	if failure.StatusOf(err) != http.StatusTooManyRequests || !retry.ShouldRetryError(err, 1) {
		t.Errorf("throttled err = %v", err)
	}
}

func TestClient_CallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(server.URL).Generate(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestClient_Enabled(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer server.Close()

	disabled := NewClient(Config{BaseURL: server.URL}, nil)
	_, err := disabled.Generate(context.Background(), testRequest())
	var pe *failure.PathwayError
	if !errors.As(err, &pe) || pe.Code != failure.CodeFeatureDisabled {
		t.Errorf("disabled: err = %v", err)
	}

	prod := NewClient(Config{BaseURL: PlaceholderURL, Enabled: true, Production: true}, nil)
	_, err = prod.Generate(context.Background(), testRequest())
	if !errors.As(err, &pe) || pe.Code != failure.CodeConfiguration {
		t.Errorf("production: err = %v", err)
	}
	if info := classify.Classify(err); info.Severity != failure.SeverityCritical {
		t.Errorf("configuration error severity = %s", info.Severity)
	}

	if calls != 0 {
		t.Errorf("disabled pathway contacted the service %d times", calls)
	}
}

func TestClient_Health(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != healthPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","version":"1.2.0"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	h := c.Health(context.Background())
	if !h.Healthy || h.Version != "1.2.0" {
		t.Errorf("health = %+v", h)
	}

	report := c.ValidateConnection(context.Background())
	if !report.Valid || len(report.Issues) != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestClient_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	h := c.Health(context.Background())
	if h.Healthy || h.Error != "HTTP 503: Service Unavailable" {
		t.Errorf("health = %+v", h)
	}

	report := c.ValidateConnection(context.Background())
	if report.Valid || len(report.Recommendations) != 3 {
		t.Errorf("report = %+v", report)
	}
}

func TestValidateConnectionBadURL(t *testing.T) {
	c := NewClient(Config{BaseURL: "not a url", Enabled: true, Production: true}, nil)
	report := c.ValidateConnection(context.Background())
	if report.Valid || report.Issues[0] != "Backend URL is not a valid URL format" {
		t.Errorf("report = %+v", report)
	}
}
