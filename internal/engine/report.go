package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"budgeteer/internal/core"
)

// Report is the assembled monthly payload handed to an export
// collaborator. This engine never renders bytes, fonts or layouts.
type Report struct {
	OwnerID   int64           `json:"owner_id"`
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	StartDate core.Date       `json:"start_date"`
	EndDate   core.Date       `json:"end_date"`
	Total     core.Money      `json:"total"`
	Average   core.Money      `json:"average_per_transaction"`
	Count     int             `json:"transaction_count"`
	Breakdown []CategoryTotal `json:"category_breakdown"`
	Trend     []MonthTotal    `json:"monthly_trend"`
	Budgets   []BudgetStatus  `json:"budget_statuses"`
	Expenses  []core.Expense  `json:"expenses"`
}

// MonthlyReport assembles the full report for one owner and calendar
// month: the unfiltered expense list of the month, the exact total, the
// category breakdown (descending by amount), the average per
// transaction, a 12-month trend ending at the month, and the status of
// every budget overlapping the month. Sections are fetched concurrently;
// each store call sees the same owner-scoped snapshot semantics.
func (e *Engine) MonthlyReport(ctx context.Context, ownerID int64, year, month int) (Report, error) {
	if year < 1 {
		return Report{}, core.InvalidArgumentf("report year %d must be positive", year)
	}
	if month < 1 || month > 12 {
		return Report{}, core.InvalidArgumentf("report month %d must be in 1..12", month)
	}
	start, end := core.MonthBounds(year, month)

	var (
		expenses []core.Expense
		total    core.Money
		trend    []MonthTotal
		budgets  []core.Budget
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = e.listAll(gctx, ownerID, Filter{StartDate: start, EndDate: end})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = e.SpendBetween(gctx, ownerID, start, end, nil)
		return err
	})
	g.Go(func() error {
		all, err := e.listAll(gctx, ownerID, Filter{
			StartDate: end.AddMonths(-DefaultTrendMonths),
			EndDate:   end,
		})
		if err != nil {
			return err
		}
		trend = TrendOf(all)
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = e.budgets.BudgetsByOwner(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	statuses := make([]BudgetStatus, 0)
	for _, b := range budgets {
		if !b.Overlaps(start, end) {
			continue
		}
		status, err := e.EvaluateBudget(ctx, b)
		if err != nil {
			return Report{}, err
		}
		statuses = append(statuses, status)
	}

	return Report{
		OwnerID:   ownerID,
		Year:      year,
		Month:     month,
		MonthName: time.Month(month).String(),
		StartDate: start,
		EndDate:   end,
		Total:     total,
		Average:   averagePerTransaction(total, len(expenses)),
		Count:     len(expenses),
		Breakdown: BreakdownOf(expenses),
		Trend:     trend,
		Budgets:   statuses,
		Expenses:  expenses,
	}, nil
}

// averagePerTransaction is total/count in cents, defined as zero for an
// empty month.
func averagePerTransaction(total core.Money, count int) core.Money {
	if count == 0 {
		return core.Money{}
	}
	return core.Money{Cents: total.Cents / int64(count)}
}
