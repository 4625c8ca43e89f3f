package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/alert"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/severity"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SeverityService is the model holder behind the prediction API.
type SeverityService interface {
	sharedobs.ReadinessChecker
	Predict(ctx context.Context, s domain.Situation) (domain.Assessment, error)
	Report() (severity.Report, bool)
	Retrain(ctx context.Context) error
}

// Escalator acts on High and Critical assessments.
type Escalator interface {
	Escalate(ctx context.Context, a domain.Assessment) alert.Outcome
}

// Deps are the collaborators the API routes call. Escalator and Maps may be
// nil; the corresponding features are then disabled. When Pipeline is set,
// /readyz also waits for the scoring pipeline to process its first batch.
type Deps struct {
	Service   SeverityService
	Escalator Escalator
	Maps      domain.MapRenderer
	Pipeline  sharedobs.ReadinessChecker
}

// readiness is ready when every checker is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Server exposes health, readiness, metrics, and the severity JSON API.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with probe, metrics, and /v1 routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Retraining runs inside the request.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	checks := readiness{deps.Service}
	if deps.Pipeline != nil {
		checks = append(checks, deps.Pipeline)
	}
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(checks))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/predict", s.handlePredict)
	mux.HandleFunc("GET /v1/model/report", s.handleReport)
	mux.HandleFunc("POST /v1/model/retrain", s.handleRetrain)
	mux.HandleFunc("GET /v1/emergencies/{type}", s.handleProfile)
	mux.HandleFunc("POST /v1/detect", s.handleDetect)
	mux.HandleFunc("GET /v1/facilities", s.handleFacilities)
	mux.HandleFunc("GET /v1/map", s.handleMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
