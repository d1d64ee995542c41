// Package server exposes the webhook endpoint, health check, and Prometheus
// metrics over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts the CodeGuard HTTP surface.
type Server struct {
	address  string
	log      *slog.Logger
	webhook  *WebhookHandler
	registry *prometheus.Registry
	server   *http.Server
}

// New creates a server. The registry may be nil to disable /metrics.
func New(address string, log *slog.Logger, webhook *WebhookHandler, registry *prometheus.Registry) *Server {
	return &Server{
		address:  address,
		log:      log,
		webhook:  webhook,
		registry: registry,
	}
}

// Run builds the router and serves until Shutdown or a listener error.
func (s *Server) Run() error {
	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Method(http.MethodPost, "/webhook", s.webhook)

	if s.registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.server = &http.Server{
		Addr:         s.address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Info("starting server", slog.String("address", s.address))
	return s.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
