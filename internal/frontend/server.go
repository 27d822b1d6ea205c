// Package frontend wires the HTTP server for the registry API.
package frontend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/dagr-org/dagr/internal/common/logger"
	"github.com/dagr-org/dagr/internal/config"
	api "github.com/dagr-org/dagr/internal/frontend/api/v1"
	"github.com/dagr-org/dagr/internal/frontend/middleware"
	"github.com/dagr-org/dagr/internal/registry"
)

// Server is the registry API server.
type Server struct {
	cfg     *config.Config
	service *registry.Service
}

// New creates a server for the given configuration and registry service.
func New(cfg *config.Config, service *registry.Service) *Server {
	return &Server{cfg: cfg, service: service}
}

// Serve runs the HTTP server until the context is canceled.
func (s *Server) Serve(ctx context.Context) error {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.cfg))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	var routeErr error
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(middleware.AuthOptions{
			Realm:            "restricted",
			BasicAuthEnabled: s.cfg.Auth.Basic.Enabled,
			APITokenEnabled:  s.cfg.Auth.Token.Enabled,
			APIToken:         s.cfg.Auth.Token.Value,
			Users:            s.cfg.Auth.Users,
		}))
		routeErr = api.New(s.service).ConfigureRoutes(r)
	})
	if routeErr != nil {
		return routeErr
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func requestLogger(cfg *config.Config) func(next http.Handler) http.Handler {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	httpLogger := httplog.NewLogger("dagr", httplog.Options{
		LogLevel:       level,
		JSON:           cfg.LogFormat == "json",
		Concise:        true,
		RequestHeaders: false,
	})
	return httplog.RequestLogger(httpLogger)
}
