// Package http implements the optional status server that exposes a running
// collection: health, run progress, Prometheus metrics and a websocket
// stream of per-security completion events. Handlers stay thin and read
// from the pipeline's progress tracker.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"ashcli/internal/config"
	apierrors "ashcli/internal/errors"
	"ashcli/internal/infrastructure"
	"ashcli/internal/middleware"
	"ashcli/internal/pipeline"
	ws "ashcli/internal/websocket"
)

// ProgressSource exposes the progress of the current run.
type ProgressSource interface {
	Tracker() *pipeline.Tracker
}

// StatusServer serves the observability surface of a collection run.
type StatusServer struct {
	server   *http.Server
	hub      *ws.Hub
	progress ProgressSource
	metrics  http.Handler
	upgrader websocket.Upgrader
	wsConfig config.WebSocketConfig
	logger   *slog.Logger
}

// NewStatusServer builds the server. metricsHandler may be nil when the
// Prometheus exporter is disabled; the route then answers 404.
func NewStatusServer(cfg config.ServerConfig, progress ProgressSource, hub *ws.Hub, metricsHandler http.Handler, logger *slog.Logger) *StatusServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StatusServer{
		hub:      hub,
		progress: progress,
		metrics:  metricsHandler,
		wsConfig: cfg.WebSocket,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		},
		logger: logger.With(slog.String("component", "status_server")),
	}
	s.server = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *StatusServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StructuredLogger(s.logger))
	r.Use(middleware.Recoverer(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/progress", s.handleProgress)
	})
	r.Get("/metrics", s.handleMetrics)
	r.Get("/ws", s.handleWebSocket)
	return r
}

// handleHealth handles GET /healthz
func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleProgress handles GET /api/v1/progress
func (s *StatusServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	tracker := s.progress.Tracker()
	if tracker == nil {
		render.Status(r, apierrors.ErrNoActiveRun.StatusCode)
		render.JSON(w, r, apierrors.ErrNoActiveRun)
		return
	}
	render.JSON(w, r, tracker.Snapshot())
}

// handleMetrics handles GET /metrics
func (s *StatusServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		render.Status(r, apierrors.ErrNotFound.StatusCode)
		render.JSON(w, r, apierrors.ErrNotFound)
		return
	}
	s.metrics.ServeHTTP(w, r)
}

// handleWebSocket handles GET /ws
func (s *StatusServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		infrastructure.LoggerWithContext(r.Context()).Error("WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}
	ws.ServeWS(s.hub, conn, s.wsConfig, s.logger)
}

// Start serves until the listener fails or Shutdown is called.
func (s *StatusServer) Start() error {
	s.logger.Info("Status server listening", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, used by tests.
func (s *StatusServer) Handler() http.Handler {
	return s.server.Handler
}
