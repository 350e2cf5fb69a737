package events

import (
	"context"
	"sync/atomic"

	"finance-tracker/internal/ledger"
	"finance-tracker/internal/log"
)

// Publisher sends one change message. *Client implements it.
type Publisher interface {
	PublishChange(ctx context.Context, msg *LedgerChangeMessage) error
}

// Forwarder relays store changes to a Publisher from its own goroutine so
// mutations never wait on the broker. Publishing is best effort.
type Forwarder struct {
	publisher Publisher
	changes   chan ledger.Change
	logger    *log.Logger

	published int64
	failed    int64
	dropped   int64
}

func NewForwarder(publisher Publisher, buffer int, logger *log.Logger) *Forwarder {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Forwarder{
		publisher: publisher,
		changes:   make(chan ledger.Change, buffer),
		logger:    logger.WithComponent(log.ComponentEvents),
	}
}

// Handle queues c for publishing; it never blocks. Pass it to
// ledger.Store.Subscribe.
func (f *Forwarder) Handle(c ledger.Change) {
	select {
	case f.changes <- c:
	default:
		atomic.AddInt64(&f.dropped, 1)
		f.logger.Warn("change buffer full, event dropped",
			"op", string(c.Op),
			log.FieldTransactionID, c.TransactionID,
		)
	}
}

// Run publishes queued changes until ctx is done, then publishes whatever
// is still buffered with a fresh context.
func (f *Forwarder) Run(ctx context.Context) {
	for {
		select {
		case c := <-f.changes:
			f.publish(ctx, c)
		case <-ctx.Done():
			for {
				select {
				case c := <-f.changes:
					f.publish(context.WithoutCancel(ctx), c)
				default:
					return
				}
			}
		}
	}
}

func (f *Forwarder) publish(ctx context.Context, c ledger.Change) {
	if err := f.publisher.PublishChange(ctx, NewLedgerChangeMessage(c)); err != nil {
		atomic.AddInt64(&f.failed, 1)
		f.logger.WarnContext(ctx, "failed to publish ledger change",
			log.FieldOperation, log.OpPublish,
			"op", string(c.Op),
			log.FieldTransactionID, c.TransactionID,
			log.FieldError, err,
		)
		return
	}
	atomic.AddInt64(&f.published, 1)
}

// Stats returns the published, failed and dropped counts.
func (f *Forwarder) Stats() (published, failed, dropped int64) {
	return atomic.LoadInt64(&f.published), atomic.LoadInt64(&f.failed), atomic.LoadInt64(&f.dropped)
}
