package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"finance-tracker/internal/core"
	"finance-tracker/internal/log"
	"finance-tracker/internal/metrics"
)

var (
	// ErrSaverClosed is returned when enqueueing on a closed saver.
	ErrSaverClosed = errors.New("persistence: saver is closed")

	// ErrFlushTimeout is returned when Flush gives up waiting.
	ErrFlushTimeout = errors.New("persistence: flush timeout exceeded")
)

// SnapshotWriter persists one snapshot synchronously.
type SnapshotWriter interface {
	Save(ctx context.Context, snap core.Snapshot) error
}

// SaverConfig configures the async saver.
type SaverConfig struct {
	// SaveTimeout bounds each write. Zero leaves it to the gateway.
	SaveTimeout time.Duration
}

// SaverStats counts what the saver has done so far.
type SaverStats struct {
	Pending    int
	Queued     int64
	Saved      int64
	Failed     int64
	Superseded int64
}

// AsyncSaver writes snapshots in the background with a single worker.
// Every snapshot is the whole ledger, so only the latest one waiting to be
// written matters: a newer snapshot replaces an unwritten older one and
// Enqueue never blocks. Storage therefore always converges on the last
// enqueued state. Failures are logged and counted, never retried.
type AsyncSaver struct {
	writer  SnapshotWriter
	config  SaverConfig
	metrics metrics.Collector
	logger  *log.Logger

	mu       sync.Mutex
	next     *core.Snapshot
	inFlight bool
	closed   bool

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	queued     atomic.Int64
	saved      atomic.Int64
	failed     atomic.Int64
	superseded atomic.Int64
}

func NewAsyncSaver(writer SnapshotWriter, config SaverConfig, collector metrics.Collector, logger *log.Logger) *AsyncSaver {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = log.Discard()
	}

	s := &AsyncSaver{
		writer:  writer,
		config:  config,
		metrics: collector,
		logger:  logger.WithComponent(log.ComponentPersistence),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go s.worker()
	return s
}

// Enqueue schedules snap for saving and returns immediately. An older
// snapshot still waiting to be written is discarded in favour of snap.
func (s *AsyncSaver) Enqueue(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSaverClosed
	}
	replaced := s.next != nil
	s.next = &snap
	s.mu.Unlock()

	s.queued.Add(1)
	if replaced {
		s.superseded.Add(1)
		s.metrics.RecordSaveDropped()
	}
	s.metrics.RecordQueueDepth(1)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *AsyncSaver) worker() {
	defer close(s.done)

	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.stop:
			// Close has already refused new snapshots, so this empties the slot for good.
			s.drain()
			return
		}
	}
}

// drain writes the pending snapshot until none is left.
func (s *AsyncSaver) drain() {
	for {
		s.mu.Lock()
		snap := s.next
		s.next = nil
		s.inFlight = snap != nil
		s.mu.Unlock()

		if snap == nil {
			return
		}
		s.metrics.RecordQueueDepth(0)
		s.save(*snap)
	}
}

func (s *AsyncSaver) save(snap core.Snapshot) {
	ctx := context.Background()
	if s.config.SaveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SaveTimeout)
		defer cancel()
	}

	start := time.Now()
	err := s.writer.Save(ctx, snap)
	duration := time.Since(start)
	s.metrics.RecordSave(err == nil, duration)

	if err != nil {
		s.failed.Add(1)
		s.logger.Error("failed to save snapshot",
			log.FieldOperation, log.OpSave,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldError, err,
		)
		return
	}
	s.saved.Add(1)
}

func (s *AsyncSaver) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next == nil && !s.inFlight
}

// Flush waits until the latest enqueued snapshot has been written or
// timeout elapses.
func (s *AsyncSaver) Flush(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for !s.idle() {
		if time.Now().After(deadline) {
			return ErrFlushTimeout
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

// Close stops accepting snapshots, writes the pending one and waits for
// the worker to exit. It is safe to call more than once.
func (s *AsyncSaver) Close() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
	})
	<-s.done
	return nil
}

func (s *AsyncSaver) Stats() SaverStats {
	s.mu.Lock()
	pending := 0
	if s.next != nil {
		pending = 1
	}
	s.mu.Unlock()

	return SaverStats{
		Pending:    pending,
		Queued:     s.queued.Load(),
		Saved:      s.saved.Load(),
		Failed:     s.failed.Load(),
		Superseded: s.superseded.Load(),
	}
}
