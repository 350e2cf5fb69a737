// Package cli provides common CLI initialization utilities shared by
// cmd/finance-tracker and cmd/finance-export.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/backend"
	"finance-tracker/internal/config"
	"finance-tracker/internal/export/sheets"
	"finance-tracker/internal/log"
	"finance-tracker/internal/metrics"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg, writing to out, and makes
// it the default.
func SetupLogger(cfg *config.Config, out io.Writer) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = out
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and sets up logging.
// Exits the process on validation failure.
func LoadAndValidateConfig(logOutput io.Writer) (*config.Config, *log.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg, logOutput)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration,
		)
		os.Exit(1)
	}
	return cfg, logger
}

// OpenStorage creates the configured gateway. Exits the process on failure.
func OpenStorage(ctx context.Context, logger *log.Logger, cfg *config.Config, collector metrics.Collector) *backend.Result {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration",
			log.FieldError, err.Error(),
			log.FieldBackend, cfg.StorageBackend,
		)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger, collector).CreateGateway(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			log.FieldError, err.Error(),
			log.FieldBackend, cfg.StorageBackend,
			log.FieldErrorType, log.ErrorTypeStorage,
		)
		os.Exit(1)
	}
	return result
}

// SheetsConfig extracts the Google Sheets export settings.
func SheetsConfig(cfg *config.Config) sheets.Config {
	return sheets.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// The returned context is cancelled once cleanup has run; the channel is
// closed when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
