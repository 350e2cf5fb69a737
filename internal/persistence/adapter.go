// Package persistence stores ledger snapshots as JSON blobs in a key/value
// gateway and restores them at startup.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"finance-tracker/internal/core"
	"finance-tracker/internal/log"
	"finance-tracker/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Storage keys. The values are JSON documents.
const (
	TransactionsKey = "transactions"
	CategoriesKey   = "categories"
)

// Adapter maps snapshots to gateway keys.
type Adapter struct {
	gateway storage.Gateway
	logger  *log.Logger
}

func NewAdapter(gateway storage.Gateway, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Adapter{
		gateway: gateway,
		logger:  logger.WithComponent(log.ComponentPersistence),
	}
}

// Load reads both blobs concurrently. Anything absent, unreadable or
// malformed falls back to its default and is logged; Load never fails.
func (a *Adapter) Load(ctx context.Context) core.Snapshot {
	var (
		txs  []core.Transaction
		cats core.CategorySet
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs = a.loadTransactions(gctx)
		return nil
	})
	g.Go(func() error {
		cats = a.loadCategories(gctx)
		return nil
	})
	_ = g.Wait()

	a.logger.InfoContext(ctx, "ledger loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldBackend, a.gateway.Name(),
		log.FieldCount, len(txs),
	)

	return core.Snapshot{Transactions: txs, Categories: cats}
}

func (a *Adapter) loadTransactions(ctx context.Context) []core.Transaction {
	raw, ok := a.read(ctx, TransactionsKey)
	if !ok {
		return []core.Transaction{}
	}

	var txs []core.Transaction
	if err := json.Unmarshal([]byte(raw), &txs); err != nil {
		a.logger.WarnContext(ctx, "discarding malformed blob",
			log.FieldStorageKey, TransactionsKey,
			log.FieldError, err,
		)
		return []core.Transaction{}
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return txs
}

func (a *Adapter) loadCategories(ctx context.Context) core.CategorySet {
	raw, ok := a.read(ctx, CategoriesKey)
	if !ok {
		return core.DefaultCategories()
	}

	var cats core.CategorySet
	if err := json.Unmarshal([]byte(raw), &cats); err != nil {
		a.logger.WarnContext(ctx, "discarding malformed blob",
			log.FieldStorageKey, CategoriesKey,
			log.FieldError, err,
		)
		return core.DefaultCategories()
	}
	return cats.Clone()
}

// read returns the raw value and whether it can be used.
func (a *Adapter) read(ctx context.Context, key string) (string, bool) {
	raw, err := a.gateway.Get(ctx, key)
	switch {
	case storage.IsNotFound(err):
		a.logger.DebugContext(ctx, "no stored value, using defaults", log.FieldStorageKey, key)
		return "", false
	case err != nil:
		a.logger.WarnContext(ctx, "failed to read stored value, using defaults",
			log.FieldStorageKey, key,
			log.FieldErrorType, storage.ClassifyError(err),
			log.FieldError, err,
		)
		return "", false
	case raw == "":
		return "", false
	}
	return raw, true
}

// Save writes both blobs. A snapshot with no transactions and no categories
// is skipped so a blank state never overwrites stored data.
func (a *Adapter) Save(ctx context.Context, snap core.Snapshot) error {
	if snap.IsEmpty() {
		a.logger.DebugContext(ctx, "skipping empty snapshot", log.FieldOperation, log.OpSave)
		return nil
	}

	txs := snap.Transactions
	if txs == nil {
		txs = []core.Transaction{}
	}
	txJSON, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	catJSON, err := json.Marshal(snap.Categories.Clone())
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return storage.WrapError(a.gateway.Set(gctx, TransactionsKey, string(txJSON)), a.gateway.Name(), "set "+TransactionsKey)
	})
	g.Go(func() error {
		return storage.WrapError(a.gateway.Set(gctx, CategoriesKey, string(catJSON)), a.gateway.Name(), "set "+CategoriesKey)
	})
	return g.Wait()
}
