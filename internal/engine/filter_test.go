package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
	"budgeteer/internal/engine"
	"budgeteer/internal/memstore"
)

const ownerID = int64(1)

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

// seedExpenses loads a small owner-scoped data set: three categories,
// two tags and six expenses spread over two months, plus one expense of
// a different owner that must never leak into results.
func seedExpenses(t *testing.T) (*memstore.Store, *engine.Engine) {
	t.Helper()
	store := memstore.New()

	groceries := store.AddCategory(core.Category{OwnerID: ownerID, Name: "Groceries"})
	transport := store.AddCategory(core.Category{OwnerID: ownerID, Name: "Transport"})
	dining := store.AddCategory(core.Category{OwnerID: ownerID, Name: "Dining"})

	work := store.AddTag(core.Tag{OwnerID: ownerID, Name: "work"})
	vacation := store.AddTag(core.Tag{OwnerID: ownerID, Name: "vacation"})

	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "Weekly groceries", Amount: core.Money{Cents: 5000},
		Date: core.NewDate(2024, 1, 5), CategoryID: groceries.ID,
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "Train ticket", Description: "commute to office",
		Amount: core.Money{Cents: 350}, Date: core.NewDate(2024, 1, 10),
		CategoryID: transport.ID, Tags: []core.Tag{work},
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "Dinner out", Amount: core.Money{Cents: 4200},
		Date: core.NewDate(2024, 1, 10), CategoryID: dining.ID, Tags: []core.Tag{vacation},
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "Groceries top-up", Amount: core.Money{Cents: 1500},
		Date: core.NewDate(2024, 1, 28), CategoryID: groceries.ID,
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "Airport taxi", Amount: core.Money{Cents: 6500},
		Date: core.NewDate(2024, 2, 2), CategoryID: transport.ID, Tags: []core.Tag{work, vacation},
	})
	store.AddExpense(core.Expense{
		OwnerID: ownerID, Title: "Team lunch", Description: "office outing",
		Amount: core.Money{Cents: 2800}, Date: core.NewDate(2024, 2, 14),
		CategoryID: dining.ID, Tags: []core.Tag{work},
	})

	otherCat := store.AddCategory(core.Category{OwnerID: 2, Name: "Groceries"})
	store.AddExpense(core.Expense{
		OwnerID: 2, Title: "Not yours", Amount: core.Money{Cents: 9999},
		Date: core.NewDate(2024, 1, 15), CategoryID: otherCat.ID,
	})

	return store, engine.New(store, store)
}

func TestListExpensesOrdering(t *testing.T) {
	_, eng := seedExpenses(t)

	page, err := eng.ListExpenses(context.Background(), ownerID, engine.Filter{}, engine.Page{Number: 1, Size: 50})
	require.NoError(t, err)
	require.Len(t, page.Items, 6)
	assert.Equal(t, 6, page.TotalCount)

	// Date descending, id descending as the tie-breaker.
	for i := 1; i < len(page.Items); i++ {
		prev, cur := page.Items[i-1], page.Items[i]
		if prev.Date.Equal(cur.Date) {
			assert.Greater(t, prev.ID, cur.ID, "same-day order must fall back to id desc")
		} else {
			assert.True(t, prev.Date.After(cur.Date), "expenses must be date-descending")
		}
	}
}

func TestListExpensesPagination(t *testing.T) {
	_, eng := seedExpenses(t)
	ctx := context.Background()

	full, err := eng.ListExpenses(ctx, ownerID, engine.Filter{}, engine.Page{Number: 1, Size: 50})
	require.NoError(t, err)

	// Walking page by page reproduces the full ordering exactly.
	var walked []core.Expense
	for n := 1; ; n++ {
		page, err := eng.ListExpenses(ctx, ownerID, engine.Filter{}, engine.Page{Number: n, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, 6, page.TotalCount, "total count is filter-wide, not page-wide")
		if len(page.Items) == 0 {
			break
		}
		walked = append(walked, page.Items...)
	}
	assert.Equal(t, full.Items, walked)

	// A page past the end is empty, not an error.
	past, err := eng.ListExpenses(ctx, ownerID, engine.Filter{}, engine.Page{Number: 99, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Items)
	assert.Equal(t, 6, past.TotalCount)
}

func TestListExpensesFilters(t *testing.T) {
	_, eng := seedExpenses(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		filter     engine.Filter
		wantTitles []string
	}{
		{
			name:       "date range inclusive",
			filter:     engine.Filter{StartDate: core.NewDate(2024, 1, 10), EndDate: core.NewDate(2024, 1, 28)},
			wantTitles: []string{"Groceries top-up", "Dinner out", "Train ticket"},
		},
		{
			name:       "start only",
			filter:     engine.Filter{StartDate: core.NewDate(2024, 2, 1)},
			wantTitles: []string{"Team lunch", "Airport taxi"},
		},
		{
			name:       "category set",
			filter:     engine.Filter{CategoryIDs: []int64{1}},
			wantTitles: []string{"Groceries top-up", "Weekly groceries"},
		},
		{
			name:       "any tag matches",
			filter:     engine.Filter{TagIDs: []int64{5}}, // vacation
			wantTitles: []string{"Airport taxi", "Dinner out"},
		},
		{
			name:       "amount range inclusive",
			filter:     engine.Filter{MinAmount: money(1500), MaxAmount: money(4200)},
			wantTitles: []string{"Team lunch", "Groceries top-up", "Dinner out"},
		},
		{
			name:       "search is case-insensitive over title and description",
			filter:     engine.Filter{Search: "OFFICE"},
			wantTitles: []string{"Team lunch", "Train ticket"},
		},
		{
			name: "dimensions combine with AND",
			filter: engine.Filter{
				StartDate:   core.NewDate(2024, 1, 1),
				EndDate:     core.NewDate(2024, 1, 31),
				CategoryIDs: []int64{2, 3},
				MinAmount:   money(1000),
			},
			wantTitles: []string{"Dinner out"},
		},
		{
			name:       "no matches",
			filter:     engine.Filter{Search: "unicorn"},
			wantTitles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := eng.ListExpenses(ctx, ownerID, tt.filter, engine.Page{Number: 1, Size: 50})
			require.NoError(t, err)

			titles := make([]string, 0, len(page.Items))
			for _, e := range page.Items {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, len(tt.wantTitles), page.TotalCount)
		})
	}
}

func TestListExpensesOwnerScoping(t *testing.T) {
	_, eng := seedExpenses(t)

	page, err := eng.ListExpenses(context.Background(), ownerID, engine.Filter{}, engine.Page{Number: 1, Size: 50})
	require.NoError(t, err)
	for _, e := range page.Items {
		assert.Equal(t, ownerID, e.OwnerID)
	}
}

func TestListExpensesInvalidArguments(t *testing.T) {
	_, eng := seedExpenses(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter engine.Filter
		page   engine.Page
	}{
		{
			name:   "inverted date range",
			filter: engine.Filter{StartDate: core.NewDate(2024, 2, 1), EndDate: core.NewDate(2024, 1, 1)},
			page:   engine.Page{Number: 1, Size: 10},
		},
		{
			name:   "max amount below min",
			filter: engine.Filter{MinAmount: money(500), MaxAmount: money(100)},
			page:   engine.Page{Number: 1, Size: 10},
		},
		{
			name:   "negative min amount",
			filter: engine.Filter{MinAmount: money(-1)},
			page:   engine.Page{Number: 1, Size: 10},
		},
		{name: "zero page number", page: engine.Page{Number: 0, Size: 10}},
		{name: "zero page size", page: engine.Page{Number: 1, Size: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.ListExpenses(ctx, ownerID, tt.filter, tt.page)
			require.Error(t, err)
			assert.True(t, core.IsInvalidArgument(err), "error %v must classify as invalid argument", err)
		})
	}
}
