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

	"hostguard/internal/app"
	"hostguard/internal/platform/config"
	"hostguard/internal/platform/httpserver"
	"hostguard/internal/platform/logger"
	httptransport "hostguard/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

// main loads configuration, assembles the service graph and serves HTTP until
// SIGINT or SIGTERM.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release backends", "error", err)
		}
	}()
	if err := a.Migrate(ctx); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(a))
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting hostguard",
			"addr", cfg.Server.Addr,
			"environment", cfg.Environment,
			"postgres", a.DB != nil,
			"redis", a.Redis != nil,
			"kafka", cfg.Kafka.Enabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
