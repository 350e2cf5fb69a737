package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finance-tracker/internal/core"
	"finance-tracker/internal/events"
	"finance-tracker/internal/log"
	"finance-tracker/internal/views"
)

// SnapshotLoader reads the persisted ledger.
type SnapshotLoader interface {
	Load(ctx context.Context) core.Snapshot
}

// SheetExporter overwrites the mirror sheet with a transaction list.
type SheetExporter interface {
	Export(ctx context.Context, txs []core.Transaction) error
}

// SyncWorker mirrors the persisted ledger into a spreadsheet whenever a
// change event arrives. Events are published before the async save lands,
// so each sync waits settle before reading storage. Events stamped before
// the read of the last completed sync are skipped.
type SyncWorker struct {
	loader   SnapshotLoader
	exporter SheetExporter
	settle   time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	lastRead time.Time
	syncs    int64
}

func NewSyncWorker(loader SnapshotLoader, exporter SheetExporter, settle time.Duration, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		loader:   loader,
		exporter: exporter,
		settle:   settle,
		logger:   logger.WithComponent(log.ComponentExport),
	}
}

// HandleChange processes a single ledger change message from AMQP.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *events.LedgerChangeMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !msg.Timestamp.IsZero() && msg.Timestamp.Add(w.settle).Before(w.lastRead) {
		w.logger.DebugContext(ctx, "Change already mirrored",
			"op", msg.Op,
			log.FieldTransactionID, msg.TransactionID,
		)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		"op", msg.Op,
		log.FieldTransactionID, msg.TransactionID,
	)
	if w.settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.settle):
		}
	}
	return w.syncLocked(ctx)
}

// StartupSync mirrors the current ledger once, catching up on anything
// missed while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked(ctx)
}

// Syncs returns how many exports completed.
func (w *SyncWorker) Syncs() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncs
}

func (w *SyncWorker) syncLocked(ctx context.Context) error {
	started := time.Now()
	snap := w.loader.Load(ctx)
	list := views.FilterAndSort(snap.Transactions, views.Query{Sort: views.SortDateDesc})

	if err := w.exporter.Export(ctx, list); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mirror ledger",
			log.FieldOperation, log.OpExport,
			log.FieldError, err,
		)
		return fmt.Errorf("export ledger to sheets: %w", err)
	}

	w.lastRead = started
	w.syncs++
	w.logger.InfoContext(ctx, "Ledger mirrored",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(list),
		log.FieldDuration, time.Since(started).Milliseconds(),
	)
	return nil
}
