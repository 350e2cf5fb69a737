package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finance-tracker/internal/cli"
	"finance-tracker/internal/events"
	"finance-tracker/internal/export/sheets"
	apphttp "finance-tracker/internal/http"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/log"
	"finance-tracker/internal/metrics"
	promcollector "finance-tracker/internal/metrics/prometheus"
	"finance-tracker/internal/persistence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestsPerMinute = 120

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(os.Stdout)
	logger.Info("Starting finance-tracker",
		log.FieldBackend, cfg.StorageBackend,
		"port", cfg.Port,
	)

	ctx := context.Background()

	var (
		collector      metrics.Collector = metrics.NoOpCollector{}
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		pc := promcollector.NewCollector("finance_tracker")
		if err := pc.Register(registry); err != nil {
			logger.Error("Failed to register metrics", log.FieldError, err.Error())
			os.Exit(1)
		}
		collector = pc
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	storageResult := cli.OpenStorage(ctx, logger, cfg, collector)
	adapter := persistence.NewAdapter(storageResult.Gateway, logger)

	saver := persistence.NewAsyncSaver(adapter, persistence.SaverConfig{
		SaveTimeout: cfg.StorageTimeout,
	}, collector, logger)

	initial := adapter.Load(ctx)
	store := ledger.New(initial, ledger.Config{
		Saver:   saver,
		Metrics: collector,
		Logger:  logger,
	})

	eventsCtx, stopEvents := context.WithCancel(ctx)
	var (
		eventsClient *events.Client
		eventsDone   = make(chan struct{})
	)
	if cfg.AMQPURL != "" {
		client, err := events.ConnectWithRetry(ctx, events.Config{
			URL:          cfg.AMQPURL,
			ExchangeName: cfg.AMQPExchange,
			QueueName:    cfg.AMQPQueue,
		}, 3, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP, change events disabled",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeNetwork,
			)
			close(eventsDone)
		} else {
			eventsClient = client
			forwarder := events.NewForwarder(client, 0, logger)
			store.Subscribe(forwarder.Handle)
			go func() {
				defer close(eventsDone)
				forwarder.Run(eventsCtx)
			}()
		}
	} else {
		logger.Info("AMQP_URL not set, change events disabled")
		close(eventsDone)
	}

	opts := apphttp.Options{
		Logger:            logger,
		MetricsHandler:    metricsHandler,
		RequestsPerMinute: requestsPerMinute,
	}
	if cfg.SheetsConfigured() {
		exporter, err := sheets.New(ctx, cli.SheetsConfig(cfg), logger)
		if err != nil {
			logger.Warn("Google Sheets export disabled", log.FieldError, err.Error())
		} else {
			opts.Sheets = exporter
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, opts)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}

		stopEvents()
		<-eventsDone
		if eventsClient != nil {
			_ = eventsClient.Close()
		}

		if err := saver.Flush(10 * time.Second); err != nil {
			logger.Warn("Pending saves not flushed", log.FieldError, err.Error())
		}
		_ = saver.Close()
		stats := saver.Stats()
		logger.Info("Saver stopped",
			"saved", stats.Saved,
			"failed", stats.Failed,
			"superseded", stats.Superseded,
		)

		if storageResult.Cleanup != nil {
			if err := storageResult.Cleanup(); err != nil {
				logger.Error("Storage cleanup error", log.FieldError, err.Error())
			}
		}
	})

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
