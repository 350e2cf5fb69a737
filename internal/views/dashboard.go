package views

import "finance-tracker/internal/core"

// Dashboard is everything one render of the main screen needs.
type Dashboard struct {
	Query               Query              `json:"query"`
	Totals              Totals             `json:"totals"`
	Transactions        []core.Transaction `json:"transactions"`
	Monthly             []MonthBucket      `json:"monthly"`
	Categories          []CategorySlice    `json:"categories"`
	AvailableCategories []string           `json:"available_categories"`
}

// BuildDashboard computes all views for snap. Totals and charts cover every
// transaction; only the list honours q.
func BuildDashboard(snap core.Snapshot, q Query) Dashboard {
	list := FilterAndSort(snap.Transactions, q)
	if list == nil {
		list = []core.Transaction{}
	}
	monthly := Monthly(snap.Transactions)
	if monthly == nil {
		monthly = []MonthBucket{}
	}
	byCategory := ByCategory(snap.Transactions)
	if byCategory == nil {
		byCategory = []CategorySlice{}
	}

	return Dashboard{
		Query:               q,
		Totals:              ComputeTotals(snap.Transactions),
		Transactions:        list,
		Monthly:             monthly,
		Categories:          byCategory,
		AvailableCategories: AvailableCategories(snap.Categories, q.Type),
	}
}
