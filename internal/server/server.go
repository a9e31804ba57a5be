// Package server wires handlers, middleware and routes into an HTTP server.
//
// All dependencies are assembled here (the composition root). Handlers only
// see services, services only see the repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/scoreboard/internal/auth"
	"github.com/sakif/scoreboard/internal/handler"
	"github.com/sakif/scoreboard/internal/middleware"
	"github.com/sakif/scoreboard/internal/repository"
	"github.com/sakif/scoreboard/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Config holds server configuration.
type Config struct {
	Port int
}

// Deps are the long-lived collaborators the server is built from.
// The server takes ownership of Store and closes it on shutdown.
type Deps struct {
	Store     repository.Store
	Tokens    *auth.TokenService
	Passwords *auth.PasswordService

	// Registry receives the HTTP and runtime collectors and backs /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	store  repository.Store
}

// New builds the router. It fails only if metric registration fails.
func New(cfg Config, logger *slog.Logger, deps Deps) (*Server, error) {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
		deps.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  deps.Store,
	}

	if err := s.setupRoutes(deps); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
// GET  /                 → health
// GET  /metrics          → Prometheus exposition
// POST /auth/register    → create account + first game, returns a token
// POST /auth/login       → returns a token
// GET  /auth/me          → [auth] caller's profile
// POST /auth/game        → [auth] start a game
// GET  /auth/games       → [auth] caller's games, newest first
// PUT  /update/profile   → [auth] edit caller's profile
// PUT  /update/game      → [auth] edit one of caller's games
func (s *Server) setupRoutes(deps Deps) error {
	metrics, err := middleware.NewMetrics(deps.Registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Handler)
	s.router.Use(chimiddleware.Recoverer)

	authService := service.NewAuthService(deps.Store, deps.Tokens, deps.Passwords, s.logger)
	profileService := service.NewProfileService(deps.Store, s.logger)
	gameService := service.NewGameService(deps.Store, s.logger)

	authHandler := handler.NewAuthHandler(authService, profileService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	gameHandler := handler.NewGameHandler(gameService, s.logger)

	s.router.Get("/", handler.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	s.router.Post("/auth/register", authHandler.HandleRegister)
	s.router.Post("/auth/login", authHandler.HandleLogin)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authService, s.logger))

		r.Get("/auth/me", authHandler.HandleMe)
		r.Post("/auth/game", gameHandler.HandleCreate)
		r.Get("/auth/games", gameHandler.HandleList)
		r.Put("/update/profile", profileHandler.HandleUpdate)
		r.Put("/update/game", gameHandler.HandleUpdate)
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until SIGINT/SIGTERM, then drains in-flight requests
// and closes the store.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
