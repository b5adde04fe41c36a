// Package remote is the document generation pathway backed by the remote
// document service.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/failure"
)

const (
	generatePath = "/api/v1/generate-pdf"
	healthPath   = "/api/v1/health"
	userAgent    = "ItineraryApp/1.0"

	// PlaceholderURL is the sample address shipped in example configs.
	PlaceholderURL = "https://api.example.com"

	maxResponseBytes = 50 << 20
)

// Config configures the remote pathway.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	ClientID       string
	Enabled        bool
	Production     bool
	GRPCHealthAddr string
}

// Client implements the remote generation pathway over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	Monitor *Monitor
}

// NewClient creates a remote pathway client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:  logger.With("pathway", domain.PathwayRemote),
		now:     time.Now,
		Monitor: NewMonitor(),
	}
}

func (c *Client) Name() domain.PathwayName { return domain.PathwayRemote }

// BaseURL returns the configured service address.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Enabled reports whether the pathway may be used, as a PathwayError when not.
func (c *Client) Enabled() error {
	if !c.cfg.Enabled {
		return &failure.PathwayError{
			Code:    failure.CodeFeatureDisabled,
			Message: "Remote PDF generation is disabled. Please enable it in configuration or use local generation.",
		}
	}
	if c.cfg.Production && (c.cfg.BaseURL == "" || c.cfg.BaseURL == PlaceholderURL) {
		return &failure.PathwayError{
			Code:    failure.CodeConfiguration,
			Message: "remote.base_url must be set in production environment",
		}
	}
	return nil
}

// Generate makes a single generation request.
func (c *Client) Generate(ctx context.Context, req *domain.ItineraryRequest) (*domain.Document, error) {
	if err := c.Enabled(); err != nil {
		return nil, err
	}
	switch c.Monitor.Status() {
	case StatusBlocked:
		return nil, &failure.PathwayError{
			Code:    failure.CodeUnauthorized,
			Status:  http.StatusForbidden,
			Message: fmt.Sprintf("Access denied: remote service refused this client, retry after %s", c.Monitor.RetryAfter().Round(time.Second)),
		}
	case StatusThrottled:
		return nil, &failure.ServerError{
			Status:  http.StatusTooManyRequests,
			Message: fmt.Sprintf("Too many requests. Remote service is throttled, retry after %s", c.Monitor.RetryAfter().Round(time.Second)),
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &failure.TypedError{Name: failure.TypeError, Err: fmt.Errorf("marshal request: %w", err)}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	requestID := uuid.NewString()
	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.cfg.BaseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, &failure.PathwayError{Code: failure.CodeConfiguration, Message: "invalid remote.base_url", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf, application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.cfg.ClientID != "" {
		httpReq.Header.Set("X-Client-ID", c.cfg.ClientID)
	}

	c.logger.Debug("Sending generation request", "url", httpReq.URL.String(), "request_id", requestID)

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.Monitor.RecordFailure()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.transportError(attemptCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.Monitor.RecordFailure()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.transportError(attemptCtx, err)
	}
	latency := c.now().Sub(start)

	doc, err := c.handleResponse(resp, data)
	if err != nil {
		c.Monitor.RecordFailure()
		return nil, err
	}
	c.Monitor.RecordSuccess(latency)

	doc.Filename = domain.Filename(req, c.now())
	doc.RequestID = requestID
	doc.GeneratedAt = c.now()
	c.logger.Info("Document generated", "bytes", len(doc.Data), "latency", latency, "request_id", requestID)
	return doc, nil
}

// transportError tags a failed round trip with the network condition behind it.
func (c *Client) transportError(attemptCtx context.Context, err error) error {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &failure.NetworkError{
			Kind:    failure.NetworkTimeout,
			Message: fmt.Sprintf("Request timed out after %s. The server may be overloaded or your connection is slow.", c.cfg.Timeout),
			Err:     err,
		}
	}

	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var authErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var recErr tls.RecordHeaderError
	var netErr net.Error

	switch {
	case errors.As(err, &dnsErr):
		return &failure.NetworkError{
			Kind:    failure.NetworkDNS,
			Message: fmt.Sprintf("Cannot resolve server address: %s. Please check the server URL and your internet connection.", c.cfg.BaseURL),
			Err:     err,
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &failure.NetworkError{
			Kind:    failure.NetworkRefused,
			Message: fmt.Sprintf("Connection refused by server at %s. The server may be down or the port may be blocked.", c.cfg.BaseURL),
			Err:     err,
		}
	case errors.As(err, &certErr), errors.As(err, &authErr), errors.As(err, &hostErr), errors.As(err, &recErr):
		return &failure.NetworkError{
			Kind:    failure.NetworkTLS,
			Message: "SSL/TLS connection error. Please check if the server certificate is valid.",
			Err:     err,
		}
	case errors.Is(err, syscall.ENETUNREACH), errors.Is(err, syscall.EHOSTUNREACH):
		return &failure.NetworkError{
			Kind:    failure.NetworkOffline,
			Message: "No network route to the document service. Please check your network connection.",
			Err:     err,
		}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &failure.NetworkError{
			Kind:    failure.NetworkTimeout,
			Message: "Connection timed out. The server is taking too long to respond.",
			Err:     err,
		}
	}
	return &failure.NetworkError{
		Kind:    failure.NetworkGeneric,
		Message: fmt.Sprintf("Failed to connect to the server at %s. Please check your internet connection and verify the server is running.", c.cfg.BaseURL),
		Err:     err,
	}
}

func (c *Client) handleResponse(resp *http.Response, body []byte) (*domain.Document, error) {
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.errorFromResponse(resp, contentType, body)
	}

	switch {
	case strings.Contains(contentType, domain.ContentTypePDF):
		if len(body) == 0 {
			return nil, &failure.ServerError{Status: resp.StatusCode, Message: "Received empty PDF file"}
		}
		return &domain.Document{Data: body, ContentType: domain.ContentTypePDF, Pathway: domain.PathwayRemote}, nil
	case strings.Contains(contentType, "application/json"):
		return nil, &failure.ServerError{
			Status:  resp.StatusCode,
			Message: "Remote service returned file info instead of a PDF. This might be a service configuration issue.",
		}
	}
	return nil, &failure.ServerError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("Unexpected response content type: %s", contentType),
	}
}

// ErrorBody is the JSON error envelope of the document service.
type ErrorBody struct {
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldIssue `json:"errors,omitempty"`
}

type FieldIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// errorMessage extracts a message and field issues from an error response.
func errorMessage(status int, contentType string, body []byte) (string, []failure.FieldError) {
	msg := fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))

	if !strings.Contains(contentType, "application/json") {
		if text := strings.TrimSpace(string(body)); text != "" {
			msg = text
		}
		return msg, nil
	}

	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return statusMessage(status), nil
	}

	var fields []failure.FieldError
	switch {
	case eb.Error != "":
		msg = eb.Error
		if eb.Message != "" {
			msg = eb.Message
		}
	case len(eb.Errors) > 0:
		msgs := make([]string, 0, len(eb.Errors))
		for _, e := range eb.Errors {
			msgs = append(msgs, e.Message)
			if e.Field != "" {
				fields = append(fields, failure.FieldError{Field: e.Field, Message: e.Message})
			}
		}
		msg = strings.Join(msgs, ", ")
	case eb.Message != "":
		msg = eb.Message
	}

	if status == http.StatusUnprocessableEntity && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		msg = "Validation failed: " + strings.Join(parts, "; ")
	}
	return msg, fields
}

func (c *Client) errorFromResponse(resp *http.Response, contentType string, body []byte) error {
	status := resp.StatusCode
	msg, fields := errorMessage(status, contentType, body)

	switch status {
	case http.StatusUnprocessableEntity:
		return &failure.ValidationError{Status: status, Message: "Form validation failed: " + msg, Fields: fields}
	case http.StatusBadRequest:
		return &failure.ValidationError{Status: status, Message: "Invalid request data: " + msg, Fields: fields}
	case http.StatusUnauthorized:
		return &failure.PathwayError{Code: failure.CodeUnauthorized, Status: status, Message: "Authentication required: " + msg}
	case http.StatusForbidden:
		c.Monitor.RecordThrottle(status, "")
		return &failure.PathwayError{Code: failure.CodeUnauthorized, Status: status, Message: "Access denied: " + msg}
	case http.StatusNotFound:
		return &failure.NetworkError{
			Kind:    failure.NetworkNotFound,
			Status:  status,
			Message: "Service not found. Please check if the backend URL is correct: " + msg,
		}
	case http.StatusRequestTimeout:
		return &failure.NetworkError{Kind: failure.NetworkTimeout, Status: status, Message: "Request timed out: " + msg}
	case http.StatusTooManyRequests:
		c.Monitor.RecordThrottle(status, resp.Header.Get("Retry-After"))
		return &failure.ServerError{Status: status, Message: "Too many requests. Please wait a moment and try again: " + msg}
	case http.StatusInternalServerError:
		return &failure.ServerError{Status: status, Message: "Internal server error. The backend encountered an issue: " + msg}
	case http.StatusBadGateway:
		return &failure.ServerError{Status: status, Message: "Bad gateway. The backend server is not responding properly: " + msg}
	case http.StatusServiceUnavailable:
		if c.Monitor.DetectThrottlePattern(msg) {
			c.Monitor.RecordThrottle(http.StatusTooManyRequests, resp.Header.Get("Retry-After"))
		}
		return &failure.ServerError{Status: status, Message: "Service unavailable. The backend is temporarily down: " + msg}
	case http.StatusGatewayTimeout:
		return &failure.ServerError{Status: status, Message: "Gateway timeout. The backend took too long to respond: " + msg}
	}

	if status >= 400 && status < 500 {
		return &failure.ValidationError{Status: status, Message: msg, Fields: fields}
	}
	return &failure.ServerError{Status: status, Message: msg}
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request data is invalid or malformed"
	case http.StatusUnauthorized:
		return "Authentication is required to access this service"
	case http.StatusForbidden:
		return "You don't have permission to access this service"
	case http.StatusNotFound:
		return "The PDF generation service was not found"
	case http.StatusUnprocessableEntity:
		return "The form data failed validation"
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait before trying again"
	case http.StatusInternalServerError:
		return "The server encountered an internal error"
	case http.StatusBadGateway:
		return "The server gateway is not responding properly"
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "The server took too long to respond"
	default:
		return fmt.Sprintf("Server returned status %d", status)
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
