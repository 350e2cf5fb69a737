package ledger

import (
	"time"

	"finance-tracker/internal/core"
)

// Op names a kind of ledger mutation.
type Op string

const (
	OpTransactionAdded   Op = "transaction_added"
	OpTransactionUpdated Op = "transaction_updated"
	OpTransactionDeleted Op = "transaction_deleted"
	OpCategoryAdded      Op = "category_added"
	OpCategoryDeleted    Op = "category_deleted"
)

// Change describes one applied mutation. TransactionID is zero for
// category changes. Seq increases by one per applied mutation.
type Change struct {
	Seq           uint64
	Op            Op
	TransactionID int64
	Type          core.TransactionType
	Category      string
	At            time.Time
}
