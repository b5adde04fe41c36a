package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	healthTimeout     = 5 * time.Second
	slowResponseAfter = 3 * time.Second
)

// HealthReport is the outcome of a health check.
type HealthReport struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time"`
	Version      string        `json:"version,omitempty"`
	Error        string        `json:"error,omitempty"`
	GRPC         string        `json:"grpc,omitempty"`
}

// Health checks the service health endpoint, and the gRPC health service
// when one is configured.
func (c *Client) Health(ctx context.Context) HealthReport {
	report := c.httpHealth(ctx)
	if c.cfg.GRPCHealthAddr == "" || !report.Healthy {
		return report
	}

	status, err := CheckGRPC(ctx, c.cfg.GRPCHealthAddr)
	report.GRPC = status
	if err != nil {
		report.Healthy = false
		report.Error = err.Error()
	} else if status != healthpb.HealthCheckResponse_SERVING.String() {
		report.Healthy = false
		report.Error = "gRPC health status " + status
	}
	return report
}

func (c *Client) httpHealth(ctx context.Context) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	start := c.now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+healthPath, nil)
	if err != nil {
		return HealthReport{Error: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	elapsed := c.now().Sub(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return HealthReport{ResponseTime: elapsed, Error: fmt.Sprintf("Health check timed out after %s", healthTimeout)}
		}
		return HealthReport{ResponseTime: elapsed, Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HealthReport{
			ResponseTime: elapsed,
			Error:        fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	report := HealthReport{Healthy: true, ResponseTime: elapsed}
	var body struct {
		Version string `json:"version"`
	}
	if json.NewDecoder(resp.Body).Decode(&body) == nil {
		report.Version = body.Version
	}
	return report
}

// CheckGRPC asks a grpc.health.v1 service for its overall status.
func CheckGRPC(ctx context.Context, endpoint string) (string, error) {
	target := endpoint
	var opts []grpc.DialOption
	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return "", fmt.Errorf("dial grpc health endpoint %s: %w", target, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return "", fmt.Errorf("grpc health check: %w", err)
	}
	return resp.GetStatus().String(), nil
}

// ConnectionReport lists configuration and reachability problems.
type ConnectionReport struct {
	Valid           bool         `json:"valid"`
	Issues          []string     `json:"issues"`
	Recommendations []string     `json:"recommendations"`
	Health          HealthReport `json:"health"`
}

// ValidateConnection checks the configured address and checks the service.
func (c *Client) ValidateConnection(ctx context.Context) ConnectionReport {
	var r ConnectionReport

	if u, err := url.Parse(c.cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		r.Issues = append(r.Issues, "Backend URL is not a valid URL format")
		r.Recommendations = append(r.Recommendations, "Check the remote.base_url setting or ITINERARY_REMOTE_BASE_URL")
	}
	if c.cfg.Production && strings.Contains(c.cfg.BaseURL, "localhost") {
		r.Issues = append(r.Issues, "Using localhost URL in production environment")
		r.Recommendations = append(r.Recommendations, "Set a proper production backend URL")
	}

	r.Health = c.Health(ctx)
	switch {
	case !r.Health.Healthy:
		r.Issues = append(r.Issues, "Backend is not responding: "+r.Health.Error)
		r.Recommendations = append(r.Recommendations,
			"Ensure the backend server is running",
			"Check network connectivity",
			"Verify the backend URL is correct",
		)
	case r.Health.ResponseTime > slowResponseAfter:
		r.Issues = append(r.Issues, "Backend is responding slowly")
		r.Recommendations = append(r.Recommendations,
			"Check backend server performance",
			"Consider increasing timeout values",
		)
	}

	r.Valid = len(r.Issues) == 0
	return r
}
