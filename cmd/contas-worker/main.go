package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"contas/internal/cli"
	"contas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("contas-worker")

	logger.Info("Starting contas-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cli.InitStore(ctx, logger, cfg)
	defer func() {
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Failed to close storage", "error", err)
			}
		}
	}()

	// Without the broker there is nothing to react to; fail fast.
	events := cli.DialBroker(logger, cfg, true)
	defer events.Close()

	alerts := worker.NewLimitAlertWorker(store.Store, cfg.EpochYear)

	logger.Info("Consuming transaction events",
		"queue", cfg.AMQPQueue, "scan_interval", cfg.AlertScanInterval.String())

	if err := alerts.Run(ctx, events, cfg.AlertScanInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
