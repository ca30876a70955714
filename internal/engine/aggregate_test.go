package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
	"budgeteer/internal/engine"
	"budgeteer/internal/memstore"
)

// seedTwoMonths loads the canonical aggregation data set: category A
// with 50.00 in January, category B with 30.00 in January, and another
// A spend of 20.00 in February.
func seedTwoMonths(t *testing.T) (*memstore.Store, *engine.Engine, core.Category, core.Category) {
	t.Helper()
	store := memstore.New()
	a := store.AddCategory(core.Category{OwnerID: ownerID, Name: "A"})
	b := store.AddCategory(core.Category{OwnerID: ownerID, Name: "B"})

	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "january a", Amount: core.Money{Cents: 5000},
		Date: core.NewDate(2024, 1, 10), CategoryID: a.ID,
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "january b", Amount: core.Money{Cents: 3000},
		Date: core.NewDate(2024, 1, 20), CategoryID: b.ID,
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "february a", Amount: core.Money{Cents: 2000},
		Date: core.NewDate(2024, 2, 5), CategoryID: a.ID,
	})

	eng := engine.New(store, store)
	return store, eng, a, b
}

func TestCategoryBreakdown(t *testing.T) {
	_, eng, a, b := seedTwoMonths(t)
	ctx := context.Background()

	got, err := eng.CategoryBreakdown(ctx, ownerID, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].CategoryID)
	assert.Equal(t, "A", got[0].CategoryName)
	assert.Equal(t, int64(5000), got[0].Amount.Cents)
	assert.Equal(t, 1, got[0].Count)

	assert.Equal(t, b.ID, got[1].CategoryID)
	assert.Equal(t, int64(3000), got[1].Amount.Cents)
	assert.Equal(t, 1, got[1].Count)

	// Group sums add up to the plain total of the same range.
	total, err := eng.SpendBetween(ctx, ownerID, core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31), nil)
	require.NoError(t, err)
	var sum core.Money
	for _, g := range got {
		sum = sum.Add(g.Amount)
	}
	assert.Equal(t, total, sum)
}

func TestCategoryBreakdownOrdering(t *testing.T) {
	store := memstore.New()
	a := store.AddCategory(core.Category{OwnerID: ownerID, Name: "A"})
	b := store.AddCategory(core.Category{OwnerID: ownerID, Name: "B"})
	// Equal totals: the lower category id must come first.
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "x", Amount: core.Money{Cents: 4000},
		Date: core.NewDate(2024, 1, 5), CategoryID: b.ID,
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "y", Amount: core.Money{Cents: 4000},
		Date: core.NewDate(2024, 1, 6), CategoryID: a.ID,
	})

	got, err := engine.New(store, store).CategoryBreakdown(context.Background(), ownerID, core.Date{}, core.Date{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].CategoryID)
	assert.Equal(t, b.ID, got[1].CategoryID)
}

func TestCategoryBreakdownEmptyRange(t *testing.T) {
	_, eng, _, _ := seedTwoMonths(t)

	got, err := eng.CategoryBreakdown(context.Background(), ownerID, core.NewDate(2030, 1, 1), core.NewDate(2030, 1, 31))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMonthlyTrend(t *testing.T) {
	_, eng, _, _ := seedTwoMonths(t)
	eng.SetClock(func() time.Time {
		return time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	})

	got, err := eng.MonthlyTrend(context.Background(), ownerID, 12)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, engine.MonthTotal{Month: "January", Year: 2024, Amount: core.Money{Cents: 8000}, Count: 2}, got[0])
	assert.Equal(t, engine.MonthTotal{Month: "February", Year: 2024, Amount: core.Money{Cents: 2000}, Count: 1}, got[1])
}

func TestMonthlyTrendLookbackCutsOldMonths(t *testing.T) {
	_, eng, _, _ := seedTwoMonths(t)
	// Looking back one month from late February excludes January 10.
	eng.SetClock(func() time.Time {
		return time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	})

	got, err := eng.MonthlyTrend(context.Background(), ownerID, 1)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "January", got[0].Month)
	assert.Equal(t, 1, got[0].Count, "only the January expense after the cutoff remains")
	assert.Equal(t, int64(3000), got[0].Amount.Cents)
	assert.Equal(t, "February", got[1].Month)
}

func TestMonthlyTrendDefaultsLookback(t *testing.T) {
	_, eng, _, _ := seedTwoMonths(t)
	eng.SetClock(func() time.Time {
		return time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)
	})

	// Non-positive month counts fall back to the default window.
	got, err := eng.MonthlyTrend(context.Background(), ownerID, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPercentOfTotal(t *testing.T) {
	assert.InDelta(t, 62.5, engine.PercentOfTotal(core.Money{Cents: 5000}, core.Money{Cents: 8000}), 1e-9)
	assert.InDelta(t, 0, engine.PercentOfTotal(core.Money{Cents: 5000}, core.Money{}), 1e-9)
	assert.InDelta(t, 0, engine.PercentOfTotal(core.Money{}, core.Money{}), 1e-9)
}
