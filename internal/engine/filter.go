// Package engine implements the budget reconciliation and aggregation
// core: filtered expense queries, spend calculation, threshold
// evaluation, category/monthly aggregates and monthly report assembly.
//
// The engine is a pure computation layer over owner-scoped snapshots
// from a store. It holds no mutable state, performs no retries, and is
// safe for concurrent use.
package engine

import (
	"sort"
	"strings"

	"budgeteer/internal/core"
)

// Filter is the multi-dimensional expense predicate. Zero values mean
// "no constraint" for the respective dimension.
type Filter struct {
	StartDate   core.Date
	EndDate     core.Date
	CategoryIDs []int64
	TagIDs      []int64
	MinAmount   *core.Money
	MaxAmount   *core.Money
	Search      string
}

// Validate rejects relationally impossible filters before any data
// access.
func (f Filter) Validate() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return core.InvalidArgumentf("filter: end date %s before start date %s", f.EndDate, f.StartDate)
	}
	if f.MinAmount != nil && f.MinAmount.IsNegative() {
		return core.InvalidArgumentf("filter: negative minimum amount")
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		return core.InvalidArgumentf("filter: negative maximum amount")
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MaxAmount.Cents < f.MinAmount.Cents {
		return core.InvalidArgumentf("filter: maximum amount below minimum amount")
	}
	return nil
}

// IsZero reports whether no dimension is constrained.
func (f Filter) IsZero() bool {
	return f.StartDate.IsZero() && f.EndDate.IsZero() &&
		len(f.CategoryIDs) == 0 && len(f.TagIDs) == 0 &&
		f.MinAmount == nil && f.MaxAmount == nil && f.Search == ""
}

// Matches reports whether the expense satisfies every given predicate
// dimension. Owner scoping is the store's responsibility.
func (f Filter) Matches(e core.Expense) bool {
	if !f.StartDate.IsZero() && e.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.Date.After(f.EndDate) {
		return false
	}
	if len(f.CategoryIDs) > 0 && !containsID(f.CategoryIDs, e.CategoryID) {
		return false
	}
	if len(f.TagIDs) > 0 && !hasAnyTag(e.Tags, f.TagIDs) {
		return false
	}
	if f.MinAmount != nil && e.Amount.Cents < f.MinAmount.Cents {
		return false
	}
	if f.MaxAmount != nil && e.Amount.Cents > f.MaxAmount.Cents {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Description), term) {
			return false
		}
	}
	return true
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func hasAnyTag(tags []core.Tag, ids []int64) bool {
	for _, t := range tags {
		if containsID(ids, t.ID) {
			return true
		}
	}
	return false
}

// Page is 1-based pagination input.
type Page struct {
	Number int
	Size   int
}

// Validate enforces page ≥ 1 and size ≥ 1.
func (p Page) Validate() error {
	if p.Number < 1 {
		return core.InvalidArgumentf("page number %d must be at least 1", p.Number)
	}
	if p.Size < 1 {
		return core.InvalidArgumentf("page size %d must be at least 1", p.Size)
	}
	return nil
}

// Offset returns the number of items to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ExpensePage is one page of a filtered query plus the total match count.
type ExpensePage struct {
	Items      []core.Expense
	TotalCount int
	Page       int
	PageSize   int
}

// SortExpenses orders expenses by date descending with identity
// descending as the stable tie-breaker, so repeated pagination over an
// unchanged data set is deterministic.
func SortExpenses(expenses []core.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].Date.After(expenses[j].Date)
		}
		return expenses[i].ID > expenses[j].ID
	})
}

// Paginate applies the page window to an already sorted slice. A page
// beyond the end yields an empty slice, not an error.
func Paginate(expenses []core.Expense, p Page) []core.Expense {
	start := p.Offset()
	if start >= len(expenses) {
		return []core.Expense{}
	}
	end := start + p.Size
	if end > len(expenses) {
		end = len(expenses)
	}
	return expenses[start:end]
}
