package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"relight/internal/config"
	"relight/internal/enhance"
	"relight/internal/server/handlers"
	"relight/internal/server/middleware"
	"relight/internal/server/sessions"
	"relight/internal/server/storage"
	"relight/internal/workerpool"
)

// Server wires the router, middleware and handlers over the stores, the
// session manager and the offload pool.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
}

// New builds the HTTP server. The engine and pool are constructed by the
// caller once and shared across all requests.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	users storage.UserStorage,
	manager *sessions.Manager,
	engine enhance.Engine,
	pool *workerpool.Pool,
	version string,
) *Server {
	authHandler := handlers.NewAuthHandler(logger, users, manager, pool)
	processHandler := handlers.NewProcessHandler(logger, engine, pool, cfg.MaxUploadBytes)
	healthHandler := handlers.NewHealthHandler(logger, version)

	router := mux.NewRouter()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	// Protected routes: the gate runs before any payload is buffered.
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth(logger, manager))
	protected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)
	protected.HandleFunc("/run", processHandler.Process).Methods(http.MethodPost)

	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			// No ReadTimeout: uploads may be slow; the body size cap is
			// enforced per request.
			IdleTimeout: time.Minute,
		},
	}
}

// Handler returns the root handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
