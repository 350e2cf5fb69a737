package core

import "slices"

// CategorySet holds the category names available for each transaction type.
type CategorySet struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

// DefaultCategories returns the categories a fresh ledger starts with.
func DefaultCategories() CategorySet {
	return CategorySet{
		Income: []string{"Salary", "Freelance", "Investment", "Other"},
		Expense: []string{
			"Food",
			"Transport",
			"Entertainment",
			"Bills",
			"Shopping",
			"Healthcare",
			"Other",
		},
	}
}

// List returns the names for t. Unknown types yield nil.
func (c CategorySet) List(t TransactionType) []string {
	switch t {
	case Income:
		return c.Income
	case Expense:
		return c.Expense
	default:
		return nil
	}
}

func (c CategorySet) Contains(t TransactionType, name string) bool {
	return slices.Contains(c.List(t), name)
}

func (c CategorySet) IsEmpty() bool {
	return len(c.Income) == 0 && len(c.Expense) == 0
}

// Clone copies both lists; nil lists become empty so they encode as [].
func (c CategorySet) Clone() CategorySet {
	return CategorySet{
		Income:  append([]string{}, c.Income...),
		Expense: append([]string{}, c.Expense...),
	}
}

// With returns a copy of c where the list for t is replaced by names.
func (c CategorySet) With(t TransactionType, names []string) CategorySet {
	out := c.Clone()
	switch t {
	case Income:
		out.Income = names
	case Expense:
		out.Expense = names
	}
	return out
}
