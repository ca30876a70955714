// Package worker runs the periodic budget evaluation that turns
// threshold crossings into persisted alerts and published notifications.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgeteer/internal/amqp"
	"budgeteer/internal/core"
	"budgeteer/internal/engine"
)

// BudgetSource is the store surface the worker needs: the budgets that
// are currently in window, and the transactional alert write that flips
// the sent-flag.
type BudgetSource interface {
	ActiveBudgets(ctx context.Context, day core.Date) ([]core.Budget, error)
	RecordAlert(ctx context.Context, budgetID int64, kind core.AlertKind, message string) (core.BudgetAlert, bool, error)
}

// AlertPublisher hands a recorded alert to the notification transport.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// AlertWorker evaluates all in-window budgets on a fixed interval. The
// engine decides whether an alert condition exists; the worker owns the
// sent-flag write through RecordAlert, so two concurrent runs can never
// emit the same alert twice.
type AlertWorker struct {
	store     BudgetSource
	engine    *engine.Engine
	publisher AlertPublisher

	now func() time.Time
}

func New(store BudgetSource, eng *engine.Engine, publisher AlertPublisher) *AlertWorker {
	return &AlertWorker{
		store:     store,
		engine:    eng,
		publisher: publisher,
		now:       time.Now,
	}
}

// Run evaluates immediately and then on every tick until the context is
// cancelled.
func (w *AlertWorker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return core.InvalidArgumentf("evaluation interval %v must be positive", interval)
	}

	if _, err := w.EvaluateAll(ctx); err != nil {
		slog.ErrorContext(ctx, "initial budget evaluation failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "alert worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.EvaluateAll(ctx); err != nil {
				slog.ErrorContext(ctx, "budget evaluation failed", "error", err)
			}
		}
	}
}

// EvaluateAll runs one evaluation pass over all in-window budgets and
// returns how many alerts were raised. A failure on one budget is
// logged and does not stop the pass.
func (w *AlertWorker) EvaluateAll(ctx context.Context) (int, error) {
	today := core.DateOf(w.now())
	budgets, err := w.store.ActiveBudgets(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("load active budgets: %w", err)
	}

	raised := 0
	for _, b := range budgets {
		ok, err := w.evaluateOne(ctx, b)
		if err != nil {
			slog.ErrorContext(ctx, "budget evaluation failed",
				"budget_id", b.ID,
				"owner_id", b.OwnerID,
				"error", err)
			continue
		}
		if ok {
			raised++
		}
	}

	slog.InfoContext(ctx, "budget evaluation pass complete",
		"budgets", len(budgets),
		"alerts_raised", raised)
	return raised, nil
}

func (w *AlertWorker) evaluateOne(ctx context.Context, b core.Budget) (bool, error) {
	status, err := w.engine.EvaluateBudget(ctx, b)
	if err != nil {
		return false, fmt.Errorf("evaluate budget: %w", err)
	}
	if !status.ShouldRaiseAlert {
		return false, nil
	}

	kind := status.Classification.AlertKind()
	message := alertMessage(status)

	// The guarded flip decides the race: when another evaluation
	// recorded first, recorded is false and nothing is published.
	_, recorded, err := w.store.RecordAlert(ctx, b.ID, kind, message)
	if err != nil {
		return false, fmt.Errorf("record alert: %w", err)
	}
	if !recorded {
		slog.DebugContext(ctx, "alert already recorded", "budget_id", b.ID)
		return false, nil
	}

	msg := amqp.NewBudgetAlertMessage(b, kind, status.PercentUsed, status.Spent, message)
	if err := w.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		// The alert row is durable; only the push notification is lost.
		// Consumers can still pick it up from the unread alerts view.
		slog.ErrorContext(ctx, "failed to publish alert",
			"budget_id", b.ID,
			"message_id", msg.MessageID,
			"error", err)
	}
	return true, nil
}

// alertMessage renders the human-readable alert text stored on the
// BudgetAlert row.
func alertMessage(status engine.BudgetStatus) string {
	b := status.Budget
	if status.Classification == engine.ClassExceeded {
		over := core.Money{Cents: -status.Remaining.Cents}
		return fmt.Sprintf("Budget %q exceeded: spent %s of %s (%s over the limit)",
			b.Name, status.Spent, b.Amount, over)
	}
	return fmt.Sprintf("Budget %q reached %.1f%% of its %s limit (spent %s)",
		b.Name, status.PercentUsed, b.Amount, status.Spent)
}
