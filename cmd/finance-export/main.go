package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finance-tracker/internal/cli"
	"finance-tracker/internal/core"
	"finance-tracker/internal/export"
	"finance-tracker/internal/export/sheets"
	"finance-tracker/internal/log"
	"finance-tracker/internal/persistence"
	"finance-tracker/internal/views"
)

func main() {
	var (
		typ      = flag.String("type", views.All, "transaction type: all, income or expense")
		category = flag.String("category", views.All, "category name or all")
		sortKey  = flag.String("sort", string(views.SortDateDesc), "date-desc, date-asc, amount-desc or amount-asc")
		out      = flag.String("out", "", "output directory or file; - for stdout (default: ./"+export.FileName(time.Now())+")")
		toSheets = flag.Bool("sheets", false, "export to the configured Google Sheet instead of CSV")
	)
	flag.Parse()

	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(os.Stderr)

	q, err := views.ParseQuery(*typ, *category, *sortKey)
	if err != nil {
		logger.Error("Invalid query", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeValidation)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	storageResult := cli.OpenStorage(ctx, logger, cfg, nil)
	defer func() {
		if storageResult.Cleanup != nil {
			_ = storageResult.Cleanup()
		}
	}()

	snap := persistence.NewAdapter(storageResult.Gateway, logger).Load(ctx)
	list := views.FilterAndSort(snap.Transactions, q)

	if *toSheets {
		if !cfg.SheetsConfigured() {
			logger.Error("Google Sheets is not configured", log.FieldErrorType, log.ErrorTypeConfiguration)
			os.Exit(1)
		}
		exporter, err := sheets.New(ctx, cli.SheetsConfig(cfg), logger)
		if err == nil {
			err = exporter.Export(ctx, list)
		}
		if err != nil {
			logger.Error("Sheets export failed", log.FieldError, err.Error())
			os.Exit(1)
		}
		logger.Info("Exported to Google Sheets", log.FieldCount, len(list))
		return
	}

	path, err := writeCSV(*out, list, time.Now())
	if err != nil {
		logger.Error("CSV export failed", log.FieldError, err.Error(), log.FieldOperation, log.OpExport)
		os.Exit(1)
	}
	if path != "" {
		logger.Info("Exported CSV", "path", path, log.FieldCount, len(list))
	}
}

// writeCSV writes to stdout for "-", into a directory under the default
// file name, or to the given file path. It returns the written path.
func writeCSV(out string, list []core.Transaction, now time.Time) (string, error) {
	if out == "-" {
		return "", export.WriteCSV(os.Stdout, list)
	}

	path := out
	if path == "" {
		path = export.FileName(now)
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, export.FileName(now))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, list); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}
