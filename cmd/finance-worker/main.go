package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finance-tracker/internal/cli"
	"finance-tracker/internal/events"
	"finance-tracker/internal/export/sheets"
	"finance-tracker/internal/log"
	"finance-tracker/internal/persistence"
	"finance-tracker/internal/worker"
)

const settleDelay = 500 * time.Millisecond

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(os.Stdout)
	logger.Info("Starting finance-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	if !cfg.SheetsConfigured() {
		logger.Error("Google Sheets is not configured, nothing to mirror to",
			log.FieldErrorType, log.ErrorTypeConfiguration,
		)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageResult := cli.OpenStorage(ctx, logger, cfg, nil)
	defer func() {
		if storageResult.Cleanup != nil {
			_ = storageResult.Cleanup()
		}
	}()
	adapter := persistence.NewAdapter(storageResult.Gateway, logger)

	exporter, err := sheets.New(ctx, cli.SheetsConfig(cfg), logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
		os.Exit(1)
	}

	client, err := events.ConnectWithRetry(ctx, events.Config{
		URL:          cfg.AMQPURL,
		ExchangeName: cfg.AMQPExchange,
		QueueName:    cfg.AMQPQueue,
	}, 10, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(adapter, exporter, settleDelay, logger)

	logger.Info("Performing startup sync")
	if err := syncWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err.Error())
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func(context.Context) {
		cancel()
	})

	go func() {
		err := client.Consume(ctx, func(msg *events.LedgerChangeMessage) error {
			return syncWorker.HandleChange(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker stopped", "syncs", syncWorker.Syncs())
}
