// Package ledger owns the in-memory transactions and categories and applies
// every mutation to them.
package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"finance-tracker/internal/core"
	"finance-tracker/internal/log"
	"finance-tracker/internal/metrics"
)

// Saver receives a snapshot after every successful mutation. Implementations
// must not block for long; persistence is best effort.
type Saver interface {
	Enqueue(ctx context.Context, snap core.Snapshot) error
}

// Config wires the store's collaborators. Every field is optional.
type Config struct {
	Saver   Saver
	Metrics metrics.Collector
	Logger  *log.Logger

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Store is the single source of truth for the ledger. It is safe for
// concurrent use.
type Store struct {
	mu     sync.RWMutex
	txs    []core.Transaction
	cats   core.CategorySet
	lastID int64

	// seq and outbox are guarded by mu; notifyMu serialises delivery so
	// subscribers see changes in the order they were applied.
	seq      uint64
	outbox   []Change
	notifyMu sync.Mutex

	subMu   sync.RWMutex
	subs    []subscriber
	nextSub int

	saver   Saver
	metrics metrics.Collector
	logger  *log.Logger
	clock   func() time.Time
}

// New creates a store seeded with initial, normally the loaded snapshot.
func New(initial core.Snapshot, cfg Config) *Store {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoOpCollector{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	initial = initial.Clone()
	var lastID int64
	for _, tx := range initial.Transactions {
		lastID = max(lastID, tx.ID)
	}

	return &Store{
		txs:     initial.Transactions,
		cats:    initial.Categories,
		lastID:  lastID,
		saver:   cfg.Saver,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.WithComponent(log.ComponentLedger),
		clock:   cfg.Clock,
	}
}

// AddTransaction validates draft, assigns a fresh id and appends the result.
// The category must belong to the list for the draft's type.
func (s *Store) AddTransaction(ctx context.Context, draft core.Draft) (core.Transaction, error) {
	s.mu.Lock()
	now := s.clock()
	tx, err := draft.Build(s.peekID(now), now)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	if !s.cats.Contains(tx.Type, tx.Category) {
		s.mu.Unlock()
		return core.Transaction{}, invalid(fmt.Errorf("%w %q for %s", core.ErrUnknownCategory, tx.Category, tx.Type))
	}

	s.lastID = tx.ID
	s.txs = append(s.txs, tx)
	s.commit(ctx)
	s.record(Change{Op: OpTransactionAdded, TransactionID: tx.ID, Type: tx.Type, Category: tx.Category, At: now})
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "transaction added",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithTransaction(tx.ID, tx.Type.String(), tx.Category, tx.Amount.String()).
			ToSlice()...,
	)
	s.deliver()
	return tx, nil
}

// UpdateTransaction replaces the transaction with the given id, keeping its
// position. The category is not checked against the list, so a transaction
// filed under a deleted category can still be edited.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, draft core.Draft) (core.Transaction, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	now := s.clock()
	tx, err := draft.Build(id, now)
	if err != nil {
		s.mu.Unlock()
		return core.Transaction{}, err
	}

	s.txs[i] = tx
	s.commit(ctx)
	s.record(Change{Op: OpTransactionUpdated, TransactionID: id, Type: tx.Type, Category: tx.Category, At: now})
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "transaction updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithTransaction(tx.ID, tx.Type.String(), tx.Category, tx.Amount.String()).
			ToSlice()...,
	)
	s.deliver()
	return tx, nil
}

// DeleteTransaction removes the transaction with the given id.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	removed := s.txs[i]
	s.txs = slices.Delete(s.txs, i, i+1)
	s.commit(ctx)
	s.record(Change{Op: OpTransactionDeleted, TransactionID: id, Type: removed.Type, Category: removed.Category, At: s.clock()})
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTransactionID, id,
	)
	s.deliver()
	return nil
}

// AddCategory appends a trimmed, non-empty, not yet present name to the list
// for t. The type is matched case-insensitively.
func (s *Store) AddCategory(ctx context.Context, t core.TransactionType, name string) error {
	t, err := core.ParseTransactionType(string(t))
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid(core.ErrEmptyName)
	}

	s.mu.Lock()
	if s.cats.Contains(t, name) {
		s.mu.Unlock()
		return fmt.Errorf("%s category %q: %w", t, name, core.ErrDuplicateCategory)
	}
	s.cats = s.cats.With(t, append(slices.Clone(s.cats.List(t)), name))
	s.commit(ctx)
	s.record(Change{Op: OpCategoryAdded, Type: t, Category: name, At: s.clock()})
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "category added",
		log.FieldOperation, log.OpCreate,
		log.FieldTxType, t.String(),
		log.FieldCategory, name,
	)
	s.deliver()
	return nil
}

// DeleteCategory removes name from the list for t. Transactions filed under
// it are left untouched.
func (s *Store) DeleteCategory(ctx context.Context, t core.TransactionType, name string) error {
	t, err := core.ParseTransactionType(string(t))
	if err != nil {
		return err
	}

	s.mu.Lock()
	list := s.cats.List(t)
	i := slices.Index(list, name)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s category %q: %w", t, name, core.ErrNotFound)
	}
	s.cats = s.cats.With(t, slices.Delete(slices.Clone(list), i, i+1))
	s.commit(ctx)
	s.record(Change{Op: OpCategoryDeleted, Type: t, Category: name, At: s.clock()})
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "category deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldTxType, t.String(),
		log.FieldCategory, name,
	)
	s.deliver()
	return nil
}

// Snapshot returns a detached copy of the whole state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.txs)
}

func (s *Store) Categories() core.CategorySet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cats.Clone()
}

// Transaction looks a single transaction up by id.
func (s *Store) Transaction(id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.txs[i], nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
}

type subscriber struct {
	id int
	fn func(Change)
}

// Subscribe registers fn for every successful mutation and returns a
// function that removes it. Subscribers are called in registration order,
// once per change, in the order the changes were applied. fn runs on a
// mutating goroutine after the state has changed, so it must not block.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
			s.subMu.Unlock()
		})
	}
}

// peekID returns the next id: the current Unix millisecond, bumped past the
// last assigned one so ids stay unique and increasing.
func (s *Store) peekID(now time.Time) int64 {
	return max(now.UnixMilli(), s.lastID+1)
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.txs, func(tx core.Transaction) bool { return tx.ID == id })
}

func (s *Store) snapshotLocked() core.Snapshot {
	return core.Snapshot{Transactions: s.txs, Categories: s.cats}.Clone()
}

// commit hands the new state to the saver. Callers hold s.mu so snapshots
// are enqueued in mutation order.
func (s *Store) commit(ctx context.Context) {
	if s.saver == nil {
		return
	}
	if err := s.saver.Enqueue(context.WithoutCancel(ctx), s.snapshotLocked()); err != nil {
		s.logger.WarnContext(ctx, "snapshot not queued for saving",
			log.FieldOperation, log.OpSave,
			log.FieldError, err,
		)
	}
}

// record numbers c and queues it for delivery. Callers hold s.mu.
func (s *Store) record(c Change) {
	s.seq++
	c.Seq = s.seq
	s.outbox = append(s.outbox, c)
}

// deliver hands queued changes to subscribers in sequence order. Whichever
// goroutine holds notifyMu delivers everything queued so far, including
// changes recorded by other mutations.
func (s *Store) deliver() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	for {
		s.mu.Lock()
		batch := s.outbox
		s.outbox = nil
		s.mu.Unlock()
		if len(batch) == 0 {
			return
		}

		s.subMu.RLock()
		subs := slices.Clone(s.subs)
		s.subMu.RUnlock()

		for _, c := range batch {
			s.metrics.RecordMutation(string(c.Op))
			for _, sub := range subs {
				sub.fn(c)
			}
		}
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", core.ErrValidation, err)
}
