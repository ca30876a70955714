package engine

import (
	"context"
	"time"

	"budgeteer/internal/core"
)

// ExpenseStore is the query seam to the expense records. Implementations
// must scope every call to the given owner, apply the filter semantics
// of Filter.Matches, and order pages by (date desc, id desc).
type ExpenseStore interface {
	// QueryExpenses returns one page of matching expenses together with
	// the total match count.
	QueryExpenses(ctx context.Context, ownerID int64, f Filter, p Page) ([]core.Expense, int, error)

	// SumExpenses returns the exact sum of amounts for the owner within
	// [start, end] inclusive, optionally restricted to one category.
	// An empty match set sums to zero.
	SumExpenses(ctx context.Context, ownerID int64, start, end core.Date, categoryID *int64) (core.Money, error)
}

// BudgetStore is the budget retrieval seam; category references come
// back resolved.
type BudgetStore interface {
	BudgetsByOwner(ctx context.Context, ownerID int64) ([]core.Budget, error)
	BudgetByID(ctx context.Context, ownerID, budgetID int64) (core.Budget, error)
}

// Engine composes the five core operations over the store seams.
type Engine struct {
	expenses ExpenseStore
	budgets  BudgetStore

	now func() time.Time
}

// New creates an Engine over the given stores.
func New(expenses ExpenseStore, budgets BudgetStore) *Engine {
	return &Engine{
		expenses: expenses,
		budgets:  budgets,
		now:      time.Now,
	}
}

// SetClock overrides the engine's time source; tests use it to pin the
// trend lookback anchor.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// ListExpenses validates the filter and pagination, then delegates to
// the store. Invalid arguments fail before any data access.
func (e *Engine) ListExpenses(ctx context.Context, ownerID int64, f Filter, p Page) (ExpensePage, error) {
	if err := p.Validate(); err != nil {
		return ExpensePage{}, err
	}
	if err := f.Validate(); err != nil {
		return ExpensePage{}, err
	}

	items, total, err := e.expenses.QueryExpenses(ctx, ownerID, f, p)
	if err != nil {
		return ExpensePage{}, err
	}
	if items == nil {
		items = []core.Expense{}
	}
	return ExpensePage{
		Items:      items,
		TotalCount: total,
		Page:       p.Number,
		PageSize:   p.Size,
	}, nil
}

// listAll fetches every expense matching the filter in one page. Used by
// the aggregation views and the report assembler.
func (e *Engine) listAll(ctx context.Context, ownerID int64, f Filter) ([]core.Expense, error) {
	const allInOnePage = 1<<31 - 1
	page, err := e.ListExpenses(ctx, ownerID, f, Page{Number: 1, Size: allInOnePage})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
