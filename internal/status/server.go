// Package status serves the operational endpoints of the long-running
// notifier: GET /health reports the scheduler loops and their dependencies,
// GET /metrics exposes the Prometheus registry when one is configured.
package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"onboarding/internal/types"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server owns the status router and its listener.
type Server struct {
	Logger       types.Logger
	HealthProbes []HealthProbe
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler

	router *chi.Mux
	http   *http.Server
}

// NewServer builds a Server with its routes mounted.
func NewServer(logger types.Logger, probes []HealthProbe, metrics http.Handler) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	s := &Server{
		Logger:         logger,
		HealthProbes:   probes,
		MetricsHandler: metrics,
		router:         chi.NewRouter(),
	}
	s.mountRoutes()
	return s, nil
}

func (s *Server) mountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", s.HandleHealth)
	if s.MetricsHandler != nil {
		s.router.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("status server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down status server: %w", err)
	}
	s.Logger.Info("status server stopped")
	return nil
}
