// cmd/service/main.go
package main

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

	"github.com/getsentry/sentry-go"

	"github-repo-proxy/internal/api"
	"github-repo-proxy/internal/config"
	"github-repo-proxy/internal/github"
	"github-repo-proxy/internal/logging"
	"github-repo-proxy/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// 1. Load configuration
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Initialize structured logger
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}
	slog.SetDefault(logger)
	logger.Info("Configuration loaded successfully", "config", *cfg)

	// 3. Error reporting
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.SentryEnv,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	} else {
		logger.Warn("Sentry is not configured")
	}

	// 4. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 5. Initialize application components
	router, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Serve until a shutdown signal arrives
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received. Draining connections.")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// newRouter wires the GitHub client, the aggregation service and the HTTP API.
func newRouter(cfg *config.Config, logger *slog.Logger) (http.Handler, error) {
	ghClient, err := github.NewClient(cfg.GithubAPIURL, cfg.GithubToken, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	repoService := service.NewRepositoryService(ghClient, logger, cfg.BranchConcurrency)
	return api.NewRouter(repoService, logger, cfg.RequestTimeout), nil
}
