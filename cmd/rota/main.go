// Package main is the entry point for the rota CLI.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rota/internal/app"
	"rota/internal/cli"
	"rota/internal/commands"
	"rota/internal/config"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create session factory for the configured backend
	factory := func(ctx context.Context, cfg *config.Config) (*app.Session, error) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if cfg.Debug {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		provider, err := app.DefaultProvider(cfg)
		if err != nil {
			return nil, err
		}
		return app.Open(ctx, cfg, app.Options{
			Provider: provider,
			Connect:  app.DefaultGateway,
			Logger:   logger,
		})
	}

	// Create dispatcher
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(code)
}
