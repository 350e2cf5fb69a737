// Package core holds the ledger's domain types.
//
// This file contains the decimal amount type and its parsing rules.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal money value. It is encoded as a bare JSON
// number so stored ledgers stay readable by other tools.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d as an Amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// ParseAmount converts user input to an Amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Empty input, malformed numbers and negative values are rejected.
//
// Examples:
//
//	ParseAmount("42.5")  -> 42.5, nil
//	ParseAmount("12,30") -> 12.3, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, invalid(ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, invalid(ErrInvalidAmount)
	}
	if d.IsNegative() {
		return Amount{}, invalid(ErrInvalidAmount)
	}
	return Amount{Decimal: d}, nil
}

// MustAmount is ParseAmount for literals; it panics on bad input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the shortest decimal form, e.g. "42.5".
func (a Amount) String() string {
	return a.Decimal.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}
