// Package views computes the read-only projections shown on the dashboard:
// totals, the filtered list, monthly series and category breakdown. Every
// function is pure and never modifies its input.
package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"finance-tracker/internal/core"

	"github.com/shopspring/decimal"
)

// All matches every type or category in a Query.
const All = "all"

// SortKey orders the transaction list.
type SortKey string

const (
	SortDateDesc   SortKey = "date-desc"
	SortDateAsc    SortKey = "date-asc"
	SortAmountDesc SortKey = "amount-desc"
	SortAmountAsc  SortKey = "amount-asc"
)

// Query selects and orders transactions. Empty fields behave like the
// defaults: all types, all categories, newest first.
type Query struct {
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Sort     SortKey `json:"sort"`
}

// Totals sums a transaction list. Balance is always TotalIncome - TotalExpenses.
type Totals struct {
	TotalIncome   core.Amount `json:"total_income"`
	TotalExpenses core.Amount `json:"total_expenses"`
	Balance       core.Amount `json:"balance"`
}

// MonthBucket aggregates one YYYY-MM month.
type MonthBucket struct {
	Month   string      `json:"month"`
	Income  core.Amount `json:"income"`
	Expense core.Amount `json:"expense"`
}

// CategorySlice is one entry of the category breakdown.
type CategorySlice struct {
	Name  string               `json:"name"`
	Value core.Amount          `json:"value"`
	Type  core.TransactionType `json:"type"`
	// Share is the percentage of the grand total, 0 when the total is 0.
	Share decimal.Decimal `json:"share"`
}

// ParseQuery validates raw query values. Empty values take the defaults.
func ParseQuery(typ, category, sort string) (Query, error) {
	q := Query{Type: All, Category: All, Sort: SortDateDesc}

	if typ = strings.TrimSpace(typ); typ != "" && !strings.EqualFold(typ, All) {
		t, err := core.ParseTransactionType(typ)
		if err != nil {
			return Query{}, err
		}
		q.Type = t.String()
	}
	if category = strings.TrimSpace(category); category != "" {
		q.Category = category
	}
	if sort = strings.TrimSpace(sort); sort != "" {
		key, err := ParseSortKey(sort)
		if err != nil {
			return Query{}, err
		}
		q.Sort = key
	}
	return q, nil
}

// ParseSortKey accepts the four known sort keys.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(s)); key {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc:
		return key, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", core.ErrValidation, s)
}

// ComputeTotals sums income and expenses exactly.
func ComputeTotals(txs []core.Transaction) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = income.Add(tx.Amount.Decimal)
		case core.Expense:
			expenses = expenses.Add(tx.Amount.Decimal)
		}
	}
	return Totals{
		TotalIncome:   core.NewAmount(income),
		TotalExpenses: core.NewAmount(expenses),
		Balance:       core.NewAmount(income.Sub(expenses)),
	}
}

// FilterAndSort returns a new list holding the transactions that match q,
// ordered by q.Sort. The sort is stable; an unrecognised key keeps the
// input order.
func FilterAndSort(txs []core.Transaction, q Query) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if q.Type != "" && q.Type != All && string(tx.Type) != q.Type {
			continue
		}
		if q.Category != "" && q.Category != All && tx.Category != q.Category {
			continue
		}
		out = append(out, tx)
	}

	if cmpFn := comparator(q.Sort); cmpFn != nil {
		slices.SortStableFunc(out, cmpFn)
	}
	return out
}

func comparator(key SortKey) func(a, b core.Transaction) int {
	switch key {
	case SortDateDesc, "":
		return func(a, b core.Transaction) int { return b.Date.Compare(a.Date.Time) }
	case SortDateAsc:
		return func(a, b core.Transaction) int { return a.Date.Compare(b.Date.Time) }
	case SortAmountDesc:
		return func(a, b core.Transaction) int { return b.Amount.Cmp(a.Amount.Decimal) }
	case SortAmountAsc:
		return func(a, b core.Transaction) int { return a.Amount.Cmp(b.Amount.Decimal) }
	default:
		return nil
	}
}

// Monthly buckets transactions by month, ascending. Anything that is not
// income counts as expense.
func Monthly(txs []core.Transaction) []MonthBucket {
	index := make(map[string]int)
	var buckets []MonthBucket

	for _, tx := range txs {
		key := tx.Date.MonthKey()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, MonthBucket{Month: key, Income: core.NewAmount(decimal.Zero), Expense: core.NewAmount(decimal.Zero)})
		}
		if tx.Type == core.Income {
			buckets[i].Income = core.NewAmount(buckets[i].Income.Add(tx.Amount.Decimal))
		} else {
			buckets[i].Expense = core.NewAmount(buckets[i].Expense.Add(tx.Amount.Decimal))
		}
	}

	slices.SortFunc(buckets, func(a, b MonthBucket) int { return cmp.Compare(a.Month, b.Month) })
	return buckets
}

// ByCategory sums amounts per category name in first-seen order. A name used
// by both types keeps the type of the first transaction seen with it.
func ByCategory(txs []core.Transaction) []CategorySlice {
	index := make(map[string]int)
	var out []CategorySlice
	total := decimal.Zero

	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategorySlice{Name: tx.Category, Value: core.NewAmount(decimal.Zero), Type: tx.Type})
		}
		out[i].Value = core.NewAmount(out[i].Value.Add(tx.Amount.Decimal))
		total = total.Add(tx.Amount.Decimal)
	}

	assignShares(out, total)
	return out
}

// hundredths of a percent in a whole
const shareUnits = 10000

// assignShares gives each slice its percentage of total to two decimal
// places using largest-remainder rounding, so the shares add up to exactly
// 100. Ties go to the slice seen first. A zero total leaves every share at 0.
func assignShares(out []CategorySlice, total decimal.Decimal) {
	if total.IsZero() {
		for i := range out {
			out[i].Share = decimal.Zero
		}
		return
	}

	units := make([]int64, len(out))
	rems := make([]decimal.Decimal, len(out))
	var assigned int64
	for i := range out {
		q, r := out[i].Value.Mul(decimal.NewFromInt(shareUnits)).QuoRem(total, 0)
		units[i], rems[i] = q.IntPart(), r
		assigned += units[i]
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return rems[b].Cmp(rems[a]) })
	for k := 0; k < int(shareUnits-assigned) && k < len(order); k++ {
		units[order[k]]++
	}

	for i := range out {
		out[i].Share = decimal.New(units[i], -2)
	}
}

// AvailableCategories lists the categories offered by the category filter.
func AvailableCategories(cats core.CategorySet, filterType string) []string {
	switch filterType {
	case string(core.Income):
		return slices.Clone(cats.Income)
	case string(core.Expense):
		return slices.Clone(cats.Expense)
	default:
		return slices.Concat(cats.Income, cats.Expense)
	}
}
