// Package server exposes the monitor's verdict and metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/devrev/pairdb/replica-monitor/internal/config"
	"github.com/devrev/pairdb/replica-monitor/internal/health"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	reporter   health.Reporter
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	cfg        *config.Config
}

// NewServer creates the HTTP server and registers its routes.
// A nil gatherer serves the default Prometheus registry.
func NewServer(cfg *config.Config, reporter health.Reporter, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := mux.NewRouter()
	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		reporter: reporter,
		gatherer: gatherer,
		logger:   logger,
		cfg:      cfg,
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	chain := Chain(
		Recovery(s.logger),
		RequestID,
		Logging(s.logger),
	)
	s.router.Use(func(next http.Handler) http.Handler {
		return chain(next)
	})

	s.router.HandleFunc("/health/live", health.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/health/replica", health.ReplicaHandler(s.reporter)).Methods(http.MethodGet)

	if s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("metrics", s.cfg.Metrics.Enabled))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}
