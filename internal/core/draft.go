package core

import (
	"strings"
	"time"
)

// Draft is the raw, unvalidated form of a transaction as submitted by a user.
type Draft struct {
	Type     TransactionType `json:"type"`
	Amount   string          `json:"amount"`
	Date     string          `json:"date"`
	Category string          `json:"category"`
	Notes    string          `json:"notes"`
}

// NewDraft returns the blank form: an expense dated today.
func NewDraft(today time.Time) Draft {
	return Draft{Type: Expense, Date: DateOf(today).String()}
}

// DraftFrom pre-fills a form for editing an existing transaction.
func DraftFrom(t Transaction) Draft {
	return Draft{
		Type:     t.Type,
		Amount:   t.Amount.String(),
		Date:     t.Date.String(),
		Category: t.Category,
		Notes:    t.Notes,
	}
}

// Build validates the draft and turns it into a transaction with the given id.
// An empty type means expense and an empty date means today. Category
// membership is checked by the caller, which owns the category list.
func (d Draft) Build(id int64, today time.Time) (Transaction, error) {
	if strings.TrimSpace(d.Amount) == "" {
		return Transaction{}, invalid(ErrInvalidAmount)
	}
	amount, err := ParseAmount(d.Amount)
	if err != nil {
		return Transaction{}, err
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		return Transaction{}, invalid(ErrEmptyCategory)
	}

	typ := d.Type
	if typ == "" {
		typ = Expense
	} else if typ, err = ParseTransactionType(string(typ)); err != nil {
		return Transaction{}, err
	}

	date := DateOf(today)
	if strings.TrimSpace(d.Date) != "" {
		if date, err = ParseDate(d.Date); err != nil {
			return Transaction{}, err
		}
	}

	return Transaction{
		ID:       id,
		Type:     typ,
		Amount:   amount,
		Date:     date,
		Category: category,
		Notes:    d.Notes,
	}, nil
}
