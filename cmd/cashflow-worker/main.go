package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/cli"
	applog "cashflow/internal/log"
	"cashflow/internal/services"
	"cashflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting cashflow-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	if result.AMQP == nil {
		logger.Error("AMQP client is required for the refresh worker", "amqp_url", cfg.AMQPURL)
		os.Exit(1)
	}

	// The worker never publishes, so it gets no AMQP client of its own.
	service := services.NewProjectionService(result.Repo, nil)
	refreshWorker := worker.NewRefreshWorker(service, cfg.ProjectionHorizonDays)

	// Warm every projection once at startup so data problems surface
	// immediately after deploys.
	if err := refreshWorker.RefreshAll(ctx); err != nil {
		logger.Error("Startup refresh failed", "error", err)
		// Don't exit - continue with normal operation
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return result.AMQP.ConsumeEntryChanged(gctx, func(msg *amqp.EntryChangedMessage) error {
			return refreshWorker.HandleChangeMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := refreshWorker.RefreshAll(gctx); err != nil {
					logger.Error("Periodic refresh failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
