package core

import (
	"strings"
	"time"
)

// BudgetPeriod labels how a budget window was created. It is purely
// informational: every calculation runs on the explicit start/end dates.
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
	PeriodCustom  BudgetPeriod = "custom"
)

// AlertKind classifies a raised budget alert.
type AlertKind string

const (
	AlertWarning   AlertKind = "warning"
	AlertNearLimit AlertKind = "near_limit"
	AlertExceeded  AlertKind = "exceeded"
)

// Touchable is the explicit mutation contract: the persistence layer
// calls Touch on every write instead of inspecting entity shape at
// runtime.
type Touchable interface {
	Touch(now time.Time)
}

// Expense is a single spend record. It belongs to exactly one owner and
// one category and carries zero or more tags. Amount is assumed
// non-negative; enforcement sits with the write path, not the engine.
type Expense struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	Amount      Money
	Date        Date
	CategoryID  int64
	Category    Category
	Tags        []Tag
	ReceiptURL  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category groups expenses and optionally scopes budgets. Name is unique
// per owner.
type Category struct {
	ID        int64
	OwnerID   int64
	Name      string
	Color     string
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag is a free-form label attached to expenses through ExpenseTag rows.
type Tag struct {
	ID        int64
	OwnerID   int64
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExpenseTag is the explicit join row of the expense/tag relation, keyed
// by (ExpenseID, TagID).
type ExpenseTag struct {
	ExpenseID int64
	TagID     int64
}

// Budget is a spending target over a fixed date window. CategoryID nil
// means the budget spans all categories of the owner. A budget row never
// rolls over; a recurring budget is a new row with a new window.
type Budget struct {
	ID             int64
	OwnerID        int64
	Name           string
	Amount         Money
	Period         BudgetPeriod
	StartDate      Date
	EndDate        Date
	CategoryID     *int64
	AlertThreshold float64 // percent in [0,100]
	AlertSent      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BudgetAlert is an immutable record of a raised alert; only the
// read-flag changes after creation.
type BudgetAlert struct {
	ID        int64
	BudgetID  int64
	Message   string
	Kind      AlertKind
	Read      bool
	CreatedAt time.Time
}

func (e *Expense) Touch(now time.Time)  { e.UpdatedAt = now }
func (c *Category) Touch(now time.Time) { c.UpdatedAt = now }
func (t *Tag) Touch(now time.Time)      { t.UpdatedAt = now }
func (b *Budget) Touch(now time.Time)   { b.UpdatedAt = now }

// Validate checks the fields the engine depends on. Ownership and
// referential integrity are the store's concern.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if e.Date.IsZero() {
		return InvalidArgumentf("expense date is required")
	}
	if e.CategoryID == 0 {
		return InvalidArgumentf("expense category is required")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Validate enforces the budget invariants: a name, a non-negative
// amount, start ≤ end and a threshold within [0,100].
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return InvalidArgumentf("budget window is required")
	}
	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidDateRange
	}
	if b.AlertThreshold < 0 || b.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	return nil
}

// Contains reports whether day falls inside the budget window, bounds
// inclusive.
func (b Budget) Contains(day Date) bool {
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}

// Overlaps reports whether the budget window intersects [start, end].
func (b Budget) Overlaps(start, end Date) bool {
	return !b.StartDate.After(end) && !b.EndDate.Before(start)
}
