// Package server provides the observability HTTP server for watch mode.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wardenhq/warden/pkg/telemetry/health"
)

const shutdownTimeout = 10 * time.Second

// Options configure the observability server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:9464".
	Addr string

	// Logger receives lifecycle events (default: slog.Default()).
	Logger *slog.Logger

	// Health serves the /healthz and /readyz probes. nil creates an
	// empty checker whose readiness is always "ready".
	Health *health.Checker

	// MetricsPath is where Prometheus metrics are exposed.
	// Empty disables the endpoint.
	MetricsPath string

	// StatusHandler serves /status with the latest run summary.
	// nil omits the endpoint.
	StatusHandler http.Handler

	// Build information for the /version endpoint.
	Version   string
	Commit    string
	BuildTime string
}

// Server is the HTTP server that exposes metrics, health probes, and
// the latest run status while watch mode runs in the foreground.
type Server struct {
	opts       Options
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates an observability server from the given options.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Health == nil {
		opts.Health = health.New(0)
	}
	return &Server{opts: opts}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown bounded by
// a fixed timeout.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.routes(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("observability server listening",
			"address", s.opts.Addr,
			"metrics_path", s.opts.MetricsPath,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.opts.Logger.Info("context cancelled, stopping observability server")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.markStopped()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// scrapes to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.markStopped()
		s.opts.Logger.Info("observability server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler. Useful for tests that
// drive the routes without a listener.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

func (s *Server) markStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// routes mounts the observability endpoints.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if s.opts.MetricsPath != "" {
		mux.Handle(s.opts.MetricsPath, promhttp.Handler())
	}

	mux.HandleFunc("/healthz", s.opts.Health.LivenessHandler())
	mux.HandleFunc("/readyz", s.opts.Health.ReadinessHandler())
	mux.HandleFunc("/version", health.VersionHandler(s.opts.Version, s.opts.Commit, s.opts.BuildTime))

	if s.opts.StatusHandler != nil {
		mux.Handle("/status", s.opts.StatusHandler)
	}

	return mux
}
