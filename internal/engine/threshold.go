package engine

import (
	"context"

	"budgeteer/internal/core"
)

// Classification is the derived state of a budget. It is recomputed on
// demand from current inputs, never persisted.
type Classification string

const (
	ClassNormal    Classification = "normal"
	ClassNearLimit Classification = "near_limit"
	ClassWarning   Classification = "warning"
	ClassExceeded  Classification = "exceeded"
)

// nearLimitBand is the soft pre-warning band below the alert threshold,
// in percentage points.
const nearLimitBand = 10

// AlertKind maps a classification to the alert kind recorded for it.
// Only Warning and Exceeded ever reach an alert row.
func (c Classification) AlertKind() core.AlertKind {
	switch c {
	case ClassExceeded:
		return core.AlertExceeded
	case ClassWarning:
		return core.AlertWarning
	default:
		return core.AlertNearLimit
	}
}

// BudgetStatus is the full evaluation output handed to the notification
// and report collaborators.
type BudgetStatus struct {
	Budget           core.Budget
	Spent            core.Money
	Remaining        core.Money // negative when exceeded, to show overage
	PercentUsed      float64
	Classification   Classification
	ShouldRaiseAlert bool
}

// PercentUsed computes spent/amount*100. A zero-amount budget is defined
// as 100% used once anything is spent and 0% otherwise, to avoid a
// division by zero.
func PercentUsed(spent, amount core.Money) float64 {
	if amount.Cents == 0 {
		if spent.Cents > 0 {
			return 100
		}
		return 0
	}
	return float64(spent.Cents) / float64(amount.Cents) * 100
}

// Classify derives the budget state, in precedence order: Exceeded when
// spent strictly exceeds the amount; Warning at or above the threshold;
// NearLimit within the band below it; Normal otherwise. Comparisons
// against the amount are exact on cents.
func Classify(spent, amount core.Money, threshold float64) Classification {
	pct := PercentUsed(spent, amount)
	switch {
	case spent.Cents > amount.Cents:
		return ClassExceeded
	case pct >= threshold:
		return ClassWarning
	case pct >= threshold-nearLimitBand:
		return ClassNearLimit
	default:
		return ClassNormal
	}
}

// EvaluateBudget computes the budget's current status. An alert should
// be raised only on an unsent Warning or Exceeded state; flipping the
// sent-flag is the notification collaborator's job, serialized per
// budget at the store.
func (e *Engine) EvaluateBudget(ctx context.Context, b core.Budget) (BudgetStatus, error) {
	spent, err := e.CurrentSpent(ctx, b)
	if err != nil {
		return BudgetStatus{}, err
	}
	return evaluate(b, spent), nil
}

func evaluate(b core.Budget, spent core.Money) BudgetStatus {
	class := Classify(spent, b.Amount, b.AlertThreshold)
	alerting := class == ClassWarning || class == ClassExceeded
	return BudgetStatus{
		Budget:           b,
		Spent:            spent,
		Remaining:        b.Amount.Sub(spent),
		PercentUsed:      PercentUsed(spent, b.Amount),
		Classification:   class,
		ShouldRaiseAlert: alerting && !b.AlertSent,
	}
}
