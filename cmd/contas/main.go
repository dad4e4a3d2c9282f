package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"contas/internal/cli"
	apphttp "contas/internal/http"
	"contas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("contas")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := cli.InitStore(ctx, logger, cfg)

	// The broker is optional here: writes succeed locally even when event
	// publishing is down.
	events := cli.DialBroker(logger, cfg, false)

	svc := services.NewFinanceService(store.Store, events, cfg.EpochYear)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close finance service", "error", err)
		}
	}()

	srv := apphttp.NewServer(cfg, svc, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
