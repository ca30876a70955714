// Package memstore is an in-memory store implementing the engine and
// alerting seams. It backs unit tests and the "memory" data backend.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/engine"
)

// Store keeps all entities in process memory behind one mutex. Filter
// semantics are the engine's own pure predicates, so the memory backend
// and the SQL backend agree by construction.
type Store struct {
	mu         sync.Mutex
	expenses   []core.Expense
	categories map[int64]core.Category
	tags       map[int64]core.Tag
	budgets    []core.Budget
	alerts     []core.BudgetAlert
	nextID     int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		categories: make(map[int64]core.Category),
		tags:       make(map[int64]core.Tag),
		now:        time.Now,
	}
}

func (s *Store) allocID() int64 {
	s.nextID++
	return s.nextID
}

// AddCategory stores a category and returns it with an identity.
func (s *Store) AddCategory(c core.Category) core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.allocID()
	now := s.now()
	c.CreatedAt = now
	c.Touch(now)
	s.categories[c.ID] = c
	return c
}

// AddTag stores a tag and returns it with an identity.
func (s *Store) AddTag(t core.Tag) core.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.allocID()
	now := s.now()
	t.CreatedAt = now
	t.Touch(now)
	s.tags[t.ID] = t
	return t
}

// AddExpense stores an expense with its category reference resolved.
func (s *Store) AddExpense(e core.Expense) core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.allocID()
	now := s.now()
	e.CreatedAt = now
	e.Touch(now)
	if cat, ok := s.categories[e.CategoryID]; ok {
		e.Category = cat
	}
	s.expenses = append(s.expenses, e)
	return e
}

// AddBudget stores a budget and returns it with an identity.
func (s *Store) AddBudget(b core.Budget) core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.allocID()
	now := s.now()
	b.CreatedAt = now
	b.Touch(now)
	s.budgets = append(s.budgets, b)
	return b
}

// QueryExpenses implements engine.ExpenseStore.
func (s *Store) QueryExpenses(_ context.Context, ownerID int64, f engine.Filter, p engine.Page) ([]core.Expense, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []core.Expense
	for _, e := range s.expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if f.Matches(e) {
			matches = append(matches, e)
		}
	}
	engine.SortExpenses(matches)
	return engine.Paginate(matches, p), len(matches), nil
}

// SumExpenses implements engine.ExpenseStore.
func (s *Store) SumExpenses(_ context.Context, ownerID int64, start, end core.Date, categoryID *int64) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total core.Money
	for _, e := range s.expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		if categoryID != nil && e.CategoryID != *categoryID {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

// BudgetsByOwner implements engine.BudgetStore.
func (s *Store) BudgetsByOwner(_ context.Context, ownerID int64) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Budget
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

// BudgetByID implements engine.BudgetStore.
func (s *Store) BudgetByID(_ context.Context, ownerID, budgetID int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.budgets {
		if b.ID == budgetID && b.OwnerID == ownerID {
			return b, nil
		}
	}
	return core.Budget{}, core.NotFoundf("budget %d for owner %d", budgetID, ownerID)
}

// ActiveBudgets returns every budget whose window contains the given
// day, across all owners.
func (s *Store) ActiveBudgets(_ context.Context, day core.Date) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Budget
	for _, b := range s.budgets {
		if b.Contains(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

// RecordAlert flips the budget's sent-flag and appends the alert row in
// one critical section. When the flag is already set the call is a
// no-op and reports recorded=false, so concurrent evaluations cannot
// produce duplicate alerts.
func (s *Store) RecordAlert(_ context.Context, budgetID int64, kind core.AlertKind, message string) (core.BudgetAlert, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.budgets {
		if s.budgets[i].ID != budgetID {
			continue
		}
		if s.budgets[i].AlertSent {
			return core.BudgetAlert{}, false, nil
		}
		now := s.now()
		s.budgets[i].AlertSent = true
		s.budgets[i].Touch(now)
		alert := core.BudgetAlert{
			ID:        s.allocID(),
			BudgetID:  budgetID,
			Message:   message,
			Kind:      kind,
			CreatedAt: now,
		}
		s.alerts = append(s.alerts, alert)
		return alert, true, nil
	}
	return core.BudgetAlert{}, false, core.NotFoundf("budget %d", budgetID)
}

// ResetAlertSent clears the sent-flag, e.g. when a new evaluation cycle
// begins. Resetting is always an explicit external action.
func (s *Store) ResetAlertSent(_ context.Context, budgetID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.budgets {
		if s.budgets[i].ID == budgetID {
			s.budgets[i].AlertSent = false
			s.budgets[i].Touch(s.now())
			return nil
		}
	}
	return core.NotFoundf("budget %d", budgetID)
}

// UnreadAlerts returns the owner's unread alerts, newest first.
func (s *Store) UnreadAlerts(_ context.Context, ownerID int64) ([]core.BudgetAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make(map[int64]bool)
	for _, b := range s.budgets {
		if b.OwnerID == ownerID {
			owned[b.ID] = true
		}
	}
	var out []core.BudgetAlert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		a := s.alerts[i]
		if owned[a.BudgetID] && !a.Read {
			out = append(out, a)
		}
	}
	return out, nil
}

// MarkAlertRead sets the read-flag of one alert.
func (s *Store) MarkAlertRead(_ context.Context, alertID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		if s.alerts[i].ID == alertID {
			s.alerts[i].Read = true
			return nil
		}
	}
	return core.NotFoundf("alert %d", alertID)
}

// Close implements the backend cleanup contract.
func (s *Store) Close() error {
	return nil
}

// SetClock overrides the store's time source; tests use it to pin
// timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

var _ engine.ExpenseStore = (*Store)(nil)
var _ engine.BudgetStore = (*Store)(nil)

// String summarizes the store size, handy in worker logs.
func (s *Store) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("memstore(%d expenses, %d budgets, %d alerts)", len(s.expenses), len(s.budgets), len(s.alerts))
}
