package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/minfaz98/cozy-stay/api"
	"github.com/minfaz98/cozy-stay/config"
)

const shutdownTimeout = 15 * time.Second

// NewHTTPServer wraps the router with CORS for the configured origins.
func NewHTTPServer(cfg config.HTTPConfig, handlers api.Handlers, logger *slog.Logger) *http.Server {
	router := api.NewRouter(handlers, logger)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", api.HeaderRequestID, api.HeaderUserID, api.HeaderUserRole},
		ExposedHeaders: []string{api.HeaderRequestID},
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves HTTP and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg config.HTTPConfig, handlers api.Handlers, logger *slog.Logger) error {
	srv := NewHTTPServer(cfg, handlers, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
