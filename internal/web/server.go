// Package web provides the HTTP adapter for the report cleaner.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sapclean/internal/config"
	"github.com/JonMunkholm/sapclean/internal/core"
	"github.com/JonMunkholm/sapclean/internal/export"
	mw "github.com/JonMunkholm/sapclean/internal/web/middleware"
)

// Server is the HTTP server for the report cleaner.
type Server struct {
	service *core.Service
	limiter *core.RunLimiter
	cfg     config.ServerConfig
	format  export.Format
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server. format is used when a request names none.
func NewServer(service *core.Service, cfg config.ServerConfig, format export.Format) *Server {
	s := &Server{
		service: service,
		limiter: core.NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:     cfg,
		format:  format,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKey(s.cfg.APIKeys))

		r.Post("/clean", s.handleClean)
		r.Post("/preview", s.handlePreview)
		r.Get("/schema", s.handleSchema)
	})
}

// Start listens on the configured address until Shutdown is called. It
// returns nil after a graceful shutdown.
func (s *Server) Start() error {
	slog.Info("starting server",
		"addr", s.server.Addr,
		"max_upload", humanize.IBytes(uint64(s.cfg.MaxUploadSize)),
		"max_concurrent", s.limiter.Status().MaxConcurrent,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Shutdown stops accepting requests and waits for running cleans to finish.
// Calling it before Start makes Start return immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
