// Package server exposes the agent's debug HTTP endpoints: prometheus
// self-metrics on /metrics and a liveness check on /health.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sidekiq-metrics-agent/pkg/config"
)

// HTTPServer wraps the listener address, the underlying http.Server, and the
// prometheus registry whose metrics it exposes.
type HTTPServer struct {
	addr     string
	server   *http.Server
	registry *prometheus.Registry
	log      *zap.Logger
}

// statusWriter wraps http.ResponseWriter to capture the response status code
// for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

const httpShutdownTimeout = 5 * time.Second

// NewHTTPServer builds the debug server with /metrics and /health routes.
func NewHTTPServer(cfg *config.ServerConfig, log *zap.Logger, registry *prometheus.Registry) *HTTPServer {
	mux := http.NewServeMux()

	logRequest := func(r *http.Request, msg string, statusCode int, start time.Time) {
		log.Debug(msg,
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	}

	mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			ErrorLog: zap.NewStdLog(log),
		}).ServeHTTP(ww, r)

		logRequest(r, "metrics request received", ww.status, start)
	}))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		ww.WriteHeader(http.StatusOK)
		_, _ = ww.Write([]byte("OK"))

		logRequest(r, "health check received", ww.status, start)
	})

	return &HTTPServer{
		addr:     cfg.Addr,
		registry: registry,
		log:      log,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Start begins serving in a background goroutine.
func (s *HTTPServer) Start() error {
	s.log.Info("starting debug HTTP server", zap.String("listen_addr", s.addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("debug HTTP server exited", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests with a timeout.
func (s *HTTPServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()

	s.log.Info("shutting down debug HTTP server")
	return s.server.Shutdown(ctx)
}
