// Command hostguardctl is the operator CLI: schema migration, one-off
// verifications, trial inspection, subscription extension and test tokens.
package main

import (
	"context"
	"fmt"
	"os"

	"hostguard/internal/app"
	"hostguard/internal/platform/config"
	"hostguard/internal/platform/logger"
)

func main() {
	root := newRootCmd(openApp)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Environment, cfg.LogLevel)
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release backends", "error", err)
		}
	}, nil
}
