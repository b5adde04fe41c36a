// Package docservice is the HTTP document service the remote pathway talks to.
package docservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vietddude/itinerary/internal/core/domain"
	"github.com/vietddude/itinerary/internal/recovery/failure"
	"github.com/vietddude/itinerary/internal/validation"
)

const maxBodyBytes = 4 << 20

// Renderer produces the document for a valid request.
type Renderer interface {
	Generate(ctx context.Context, req *domain.ItineraryRequest) (*domain.Document, error)
}

// Config holds the listener settings.
type Config struct {
	Port            int
	GRPCPort        int // 0 disables the gRPC health server
	Version         string
	ShutdownTimeout time.Duration
}

// Server serves generate, health and metrics endpoints.
type Server struct {
	cfg      Config
	renderer Renderer
	monitor  *Monitor
	logger   *slog.Logger
	now      func() time.Time
	router   *mux.Router
	health   *health.Server
}

// NewServer builds the router. A nil monitor reports healthy.
func NewServer(cfg Config, renderer Renderer, monitor *Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if monitor == nil {
		monitor = NewMonitor()
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:      cfg,
		renderer: renderer,
		monitor:  monitor,
		logger:   logger.With("component", "docservice"),
		now:      time.Now,
		health:   health.NewServer(),
	}

	r := mux.NewRouter()
	r.Use(s.recoverPanics, s.logging)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/generate-pdf", s.handleGenerate).Methods(http.MethodPost)
	v1.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	v1.HandleFunc("/health/detailed", s.handleDetailed).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcSrv *grpc.Server
	var grpcLis net.Listener
	if s.cfg.GRPCPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("failed to listen on grpc port: %w", err)
		}
		grpcLis = lis
		grpcSrv = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, s.health)
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("HTTP server listening", "port", s.cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcSrv != nil {
		g.Go(func() error {
			s.logger.Info("gRPC health server listening", "port", s.cfg.GRPCPort)
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down document service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()

		if grpcSrv != nil {
			s.health.Shutdown()
			grpcSrv.GracefulStop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type errorBody struct {
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Errors  []fieldIssue `json:"errors,omitempty"`
}

type fieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Itinerary PDF Generation API",
		"version": s.cfg.Version,
		"status":  "running",
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.ItineraryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request format", Message: err.Error()})
		return
	}

	s.logger.Info("Received PDF generation request",
		"destination", req.Trip.Destination,
		"travelers", req.Trip.Travelers,
		"start_date", req.Trip.StartDate,
		"end_date", req.Trip.EndDate,
		"days", len(req.Itinerary.Days),
		"flights", len(req.Flights),
		"hotels", len(req.Hotels),
	)

	if res := validation.ValidateItinerary(&req, s.now()); !res.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Errors: issues(res)})
		return
	}

	doc, err := s.renderer.Generate(r.Context(), &req)
	if err != nil {
		var ve *failure.ValidationError
		if errors.As(err, &ve) {
			body := errorBody{}
			for _, f := range ve.Fields {
				body.Errors = append(body.Errors, fieldIssue{Field: f.Field, Message: f.Message, Code: "INVALID"})
			}
			if len(body.Errors) == 0 {
				body.Message = ve.Message
			}
			writeJSON(w, http.StatusUnprocessableEntity, body)
			return
		}
		s.logger.Error("Failed to generate PDF", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "PDF generation failed", Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", domain.ContentTypePDF)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(doc.Size()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		s.logger.Warn("Failed to write PDF response", "error", err)
	}
}

// issues converts blocking validation errors to the 422 body.
func issues(res validation.Result) []fieldIssue {
	var out []fieldIssue
	for _, e := range res.Errors {
		if e.Severity != validation.SeverityError {
			continue
		}
		out = append(out, fieldIssue{Field: e.Field, Message: e.Message, Code: e.Code})
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	status := http.StatusOK
	if report.SystemStatus == StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"status":  string(report.SystemStatus),
		"version": s.cfg.Version,
	})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())
	status := http.StatusOK
	if report.SystemStatus == StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
