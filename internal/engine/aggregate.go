package engine

import (
	"context"
	"sort"
	"time"

	"budgeteer/internal/core"
)

// CategoryTotal is one group of the category breakdown.
type CategoryTotal struct {
	CategoryID   int64
	CategoryName string
	Amount       core.Money
	Count        int
}

// MonthTotal is one group of the monthly trend.
type MonthTotal struct {
	Month  string // English month name
	Year   int
	Amount core.Money
	Count  int
}

// DefaultTrendMonths is the lookback window used when the caller passes
// a non-positive month count.
const DefaultTrendMonths = 12

// CategoryBreakdown groups the owner's expenses within the optional date
// range by category. Only categories with at least one matching expense
// appear; ordering is descending by amount with category id as the
// stable tie-breaker.
func (e *Engine) CategoryBreakdown(ctx context.Context, ownerID int64, start, end core.Date) ([]CategoryTotal, error) {
	f := Filter{StartDate: start, EndDate: end}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	expenses, err := e.listAll(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	return BreakdownOf(expenses), nil
}

// BreakdownOf is the pure grouping behind CategoryBreakdown.
func BreakdownOf(expenses []core.Expense) []CategoryTotal {
	groups := make(map[int64]*CategoryTotal)
	for _, exp := range expenses {
		g, ok := groups[exp.CategoryID]
		if !ok {
			g = &CategoryTotal{
				CategoryID:   exp.CategoryID,
				CategoryName: exp.Category.Name,
			}
			groups[exp.CategoryID] = g
		}
		g.Amount = g.Amount.Add(exp.Amount)
		g.Count++
	}

	out := make([]CategoryTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// MonthlyTrend groups the owner's expenses of the last months (counted
// back from now) by calendar year and month, ascending. Months without
// expenses are not synthesized as zero rows.
func (e *Engine) MonthlyTrend(ctx context.Context, ownerID int64, months int) ([]MonthTotal, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	start := core.DateOf(e.now()).AddMonths(-months)
	expenses, err := e.listAll(ctx, ownerID, Filter{StartDate: start})
	if err != nil {
		return nil, err
	}
	return TrendOf(expenses), nil
}

// TrendOf is the pure grouping behind MonthlyTrend: group by (year,
// month), ascending.
func TrendOf(expenses []core.Expense) []MonthTotal {
	type ym struct {
		year  int
		month int
	}
	groups := make(map[ym]*MonthTotal)
	for _, exp := range expenses {
		key := ym{year: exp.Date.Year(), month: exp.Date.Month()}
		g, ok := groups[key]
		if !ok {
			g = &MonthTotal{
				Month: time.Month(key.month).String(),
				Year:  key.year,
			}
			groups[key] = g
		}
		g.Amount = g.Amount.Add(exp.Amount)
		g.Count++
	}

	keys := make([]ym, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]MonthTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out
}

// PercentOfTotal returns part/total*100 for display. A zero total yields
// 0% for every group instead of a division error.
func PercentOfTotal(part, total core.Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return float64(part.Cents) / float64(total.Cents) * 100
}
