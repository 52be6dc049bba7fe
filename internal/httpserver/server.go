package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/duewatch/internal/config"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/mw"
	"github.com/MrSnakeDoc/duewatch/internal/httpserver/routes"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
)

const requestTimeout = 15 * time.Second

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	r := chi.NewRouter()

	// --- Global middlewares (safe defaults)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)               // X-Request-ID on each request
	r.Use(middleware.Recoverer)               // never crash the process on panic
	r.Use(middleware.Timeout(requestTimeout)) // per-request timeout, dispatch calls included
	r.Use(mw.Log(loggerClient))               // structured access logs

	// Auto-register all routes
	routes.RegisterAll(r, d)

	return &Server{
		http: &http.Server{
			Addr:              cfg.ListenPort,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      requestTimeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    64 << 10,
		},
		logger: loggerClient,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start blocks until the server fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server draining connections")
	return s.http.Shutdown(ctx)
}
