// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects the store, services,
// handlers, middleware and routes, and owns the process lifecycle:
// startup, graceful shutdown, and closing the store.
//
// DEPENDENCY INJECTION FLOW:
//
//	store.Store  → implements every repository interface
//	services     → receive the repository interfaces (not *store.Store)
//	handlers     → receive the services
//	router       → receives the handlers
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
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

	"github.com/sakif/queridometro/internal/auth"
	"github.com/sakif/queridometro/internal/handler"
	"github.com/sakif/queridometro/internal/metrics"
	"github.com/sakif/queridometro/internal/middleware"
	"github.com/sakif/queridometro/internal/service"
	"github.com/sakif/queridometro/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port          int
	DataPath      string // JSON data file
	SessionSecret string
	SecureCookies bool
	BcryptCost    int
	VoteLocation  *time.Location // defines "today" for votes; nil means UTC

	// Now overrides the clock used for vote dates. Tests only.
	Now func() time.Time
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Close drains the store's write queue, so a
// vote accepted just before shutdown is on disk before the process exits.
type Server struct {
	router  *chi.Mux
	config  Config
	logger  *slog.Logger
	store   *store.Store
	metrics *metrics.Metrics
}

// New opens the store and wires every layer on top of it.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.BcryptCost)
	m := metrics.New()

	st, err := store.New(store.Options{
		Path:    cfg.DataPath,
		Hasher:  passwords,
		Logger:  logger.With(slog.String("component", "store")),
		Metrics: m,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   st,
		metrics: m,
	}
	s.setupRoutes(tokens, passwords)
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                  liveness
//	GET    /metrics                  prometheus
//	POST   /api/auth/login           public
//	POST   /api/auth/register        public
//	POST   /api/auth/logout          public
//	GET    /api/emojis               public
//	GET    /api/config               public
//	GET    /api/resumo               public (today's summary)
//	GET    /api/profile              session
//	PUT    /api/profile              session
//	GET    /api/participants         session
//	GET    /api/participants/{id}    session
//	GET    /api/votes                session
//	POST   /api/votes                session
//	POST   /api/participants         administrator
//	PUT    /api/participants/{id}    administrator
//	DELETE /api/participants/{id}    administrator
//	POST   /api/emojis               administrator
//	PUT    /api/emojis/{id}          administrator
//	DELETE /api/emojis/{id}          administrator
//	PUT    /api/config               administrator
//	GET    /api/admin/resumo         administrator
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so every later log line can carry it; Recoverer before
// the logger so a panic still produces a logged 500.
func (s *Server) setupRoutes(tokens *auth.TokenService, passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	s.router.Handle("/metrics", s.metrics.Handler())

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	participantService := service.NewParticipantService(s.store, passwords, s.logger)
	catalogService := service.NewCatalogService(s.store, s.store, s.logger)
	voteService := service.NewVoteService(s.store, s.store, s.store, s.logger, service.VoteOptions{
		Location: s.config.VoteLocation,
		Now:      s.config.Now,
		Metrics:  s.metrics,
	})

	authHandler := handler.NewAuthHandler(authService, s.config.SecureCookies, s.logger)
	participantHandler := handler.NewParticipantHandler(participantService, s.logger)
	catalogHandler := handler.NewCatalogHandler(catalogService, s.logger)
	voteHandler := handler.NewVoteHandler(voteService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.LoadSession(authService, s.logger))

		// === Public ===
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/emojis", catalogHandler.HandleListEmojis)
		r.Get("/config", catalogHandler.HandleGetConfig)
		r.Get("/resumo", voteHandler.HandleSummary)

		// === Signed in ===
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/profile", authHandler.HandleProfile)
			r.Put("/profile", authHandler.HandleUpdateProfile)
			r.Get("/participants", participantHandler.HandleList)
			r.Get("/participants/{id}", participantHandler.HandleGet)
			r.Get("/votes", voteHandler.HandleToday)
			r.Post("/votes", voteHandler.HandleCast)
		})

		// === Administrator ===
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireMaster)
			r.Post("/participants", participantHandler.HandleCreate)
			r.Put("/participants/{id}", participantHandler.HandleUpdate)
			r.Delete("/participants/{id}", participantHandler.HandleDelete)
			r.Post("/emojis", catalogHandler.HandleCreateEmoji)
			r.Put("/emojis/{id}", catalogHandler.HandleUpdateEmoji)
			r.Delete("/emojis/{id}", catalogHandler.HandleDeleteEmoji)
			r.Put("/config", catalogHandler.HandleUpdateConfig)
			r.Get("/admin/resumo", voteHandler.HandleAdminSummary)
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the store's write worker after draining queued writes.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the store (drains the write queue)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("data", s.config.DataPath),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
