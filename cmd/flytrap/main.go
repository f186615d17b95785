// Package main provides the entry point for the flytrap server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flytraphq/flytrap/internal/api"
	"github.com/flytraphq/flytrap/internal/ingest"
	"github.com/flytraphq/flytrap/internal/shutdown"
	"github.com/flytraphq/flytrap/internal/store/sqlite"
	"github.com/flytraphq/flytrap/pkg/config"
	"github.com/flytraphq/flytrap/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel), cfg.LogJSON)

	st, err := sqlite.Open(sqlite.DefaultConfig(cfg.DatabasePath), log.Logger)
	if err != nil {
		log.Error("failed to open record store", "error", err)
		os.Exit(1)
	}

	writer := ingest.NewWriter(st, log.Logger,
		ingest.WithQueueSize(cfg.IngestQueueSize),
	)

	// Registered in dependency order: the store closes last, after the
	// ingest queue has drained into it.
	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.Register(shutdown.NewCloserComponent("record-store", st))
	coordinator.Register(shutdown.NewFuncComponent("ingest-writer", writer.Close))

	server := api.NewServer(cfg, st, writer, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		coordinator.Shutdown()
		os.Exit(1)
	}

	if !coordinator.Shutdown() {
		os.Exit(1)
	}
	log.Info("server stopped")
}
