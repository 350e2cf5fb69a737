package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const dateLayout = "2006-01-02"

type (
	TransactionType string

	// Date is a calendar day encoded as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID       int64           `json:"id"`
		Type     TransactionType `json:"type"`
		Amount   Amount          `json:"amount"`
		Date     Date            `json:"date"`
		Category string          `json:"category"`
		Notes    string          `json:"notes,omitempty"`
	}

	// Snapshot is a detached copy of the ledger state.
	Snapshot struct {
		Transactions []Transaction
		Categories   CategorySet
	}
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateCategory = errors.New("category already exists")

	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyName       = errors.New("empty category name")
)

// invalid marks err as a validation failure while keeping the specific cause.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// ParseTransactionType accepts "income" or "expense", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalid(ErrInvalidType)
	}
	return t, nil
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid(ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey returns the YYYY-MM bucket the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// Equal reports whether both transactions carry the same values.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID &&
		t.Type == o.Type &&
		t.Amount.Equal(o.Amount.Decimal) &&
		t.Date.Equal(o.Date.Time) &&
		t.Category == o.Category &&
		t.Notes == o.Notes
}

// IsEmpty is true when there are no transactions and no categories at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Transactions) == 0 && s.Categories.IsEmpty()
}

// Clone returns a deep copy, safe to hand to other goroutines.
func (s Snapshot) Clone() Snapshot {
	txs := make([]Transaction, len(s.Transactions))
	copy(txs, s.Transactions)
	return Snapshot{Transactions: txs, Categories: s.Categories.Clone()}
}
