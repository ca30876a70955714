package engine

import (
	"context"

	"budgeteer/internal/core"
)

// SpendBetween returns the exact total spent by the owner within
// [start, end] inclusive, optionally scoped to one category. No matching
// expenses yields zero, never an error.
func (e *Engine) SpendBetween(ctx context.Context, ownerID int64, start, end core.Date, categoryID *int64) (core.Money, error) {
	if start.IsZero() || end.IsZero() {
		return core.Money{}, core.InvalidArgumentf("spend window requires both start and end dates")
	}
	if end.Before(start) {
		return core.Money{}, core.InvalidArgumentf("spend window end %s before start %s", end, start)
	}
	return e.expenses.SumExpenses(ctx, ownerID, start, end, categoryID)
}

// CurrentSpent computes the budget's spend over its own window and
// category scope.
func (e *Engine) CurrentSpent(ctx context.Context, b core.Budget) (core.Money, error) {
	if err := b.Validate(); err != nil {
		return core.Money{}, err
	}
	return e.SpendBetween(ctx, b.OwnerID, b.StartDate, b.EndDate, b.CategoryID)
}
