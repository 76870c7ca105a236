// Package httpapi exposes the allocation engine over HTTP. Authentication is
// handled upstream; the caller's identity arrives in the X-User-ID header.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexanderramin/phasehours/internal/config"
	"github.com/alexanderramin/phasehours/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const ActorHeader = "X-User-ID"

type Server struct {
	svc      *service.Services
	logger   *zap.Logger
	validate *validator.Validate
	timeout  time.Duration
	version  string
}

type Option func(*Server)

// WithRequestTimeout bounds every request's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

func NewServer(svc *service.Services, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
		timeout:  30 * time.Second,
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(requireActor)

			r.Route("/allocations", func(r chi.Router) {
				r.Get("/", s.handleListAllocations)
				r.Get("/{id}", s.handleGetAllocation)
				r.Post("/submit", s.handleSubmitAllocation)
				r.Post("/decide", s.handleDecideAllocation)
				r.Post("/request-deletion", s.handleRequestDeletion)
			})
			r.Route("/weekly", func(r chi.Router) {
				r.Get("/", s.handleListWeekly)
				r.Post("/propose", s.handleProposeWeekly)
				r.Post("/decide", s.handleDecideWeekly)
			})
			r.Route("/unplanned", func(r chi.Router) {
				r.Get("/", s.handleListUnplanned)
				r.Get("/{id}", s.handleGetUnplanned)
				r.Post("/{id}/reallocate", s.handleReallocate)
				r.Post("/{id}/forfeit", s.handleForfeit)
			})
			r.Post("/reallocations/{id}/retarget", s.handleRetarget)
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleInbox)
				r.Post("/{id}/read", s.handleMarkRead)
			})
		})
	})

	return r
}

// Serve runs the API on addr until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, cfg config.HTTPConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "available",
		"version": s.version,
	})
}
