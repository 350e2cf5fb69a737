package events

import (
	"encoding/json"
	"time"

	"finance-tracker/internal/ledger"
)

// LedgerChangeMessage is published for every applied ledger mutation.
// TransactionID is omitted for category changes. Seq orders messages from
// one ledger process.
type LedgerChangeMessage struct {
	Seq           uint64    `json:"seq,omitempty"`
	Op            string    `json:"op"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Type          string    `json:"type"`
	Category      string    `json:"category"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage converts a store change into its wire form.
func NewLedgerChangeMessage(c ledger.Change) *LedgerChangeMessage {
	ts := c.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LedgerChangeMessage{
		Seq:           c.Seq,
		Op:            string(c.Op),
		TransactionID: c.TransactionID,
		Type:          c.Type.String(),
		Category:      c.Category,
		Timestamp:     ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
