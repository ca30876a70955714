package storage

import (
	"context"
	"database/sql"
	"log/slog"

	"budgeteer/internal/core"
)

const budgetColumns = `id, owner_id, name, amount_cents, period, start_date, end_date,
	category_id, alert_threshold, alert_sent, created_at, updated_at`

// CreateBudget inserts a budget after validating its invariants.
func (s *SQLiteStore) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	now := s.now()
	b.CreatedAt = now
	b.Touch(now)
	if b.Period == "" {
		b.Period = core.PeriodCustom
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (owner_id, name, amount_cents, period, start_date, end_date,
		                      category_id, alert_threshold, alert_sent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.Name, b.Amount.Cents, string(b.Period), b.StartDate.String(), b.EndDate.String(),
		b.CategoryID, b.AlertThreshold, b.AlertSent, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return core.Budget{}, storeErr("create budget", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, storeErr("create budget id", err)
	}
	return b, nil
}

// BudgetsByOwner implements engine.BudgetStore.
func (s *SQLiteStore) BudgetsByOwner(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, storeErr("query budgets", err)
	}
	defer rows.Close()
	return scanBudgets(rows)
}

// BudgetByID implements engine.BudgetStore.
func (s *SQLiteStore) BudgetByID(ctx context.Context, ownerID, budgetID int64) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND owner_id = ?`,
		budgetID, ownerID)
	b, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, storeErr("budget by id", err)
	}
	return b, nil
}

// ActiveBudgets returns every budget whose window contains the given
// day, across all owners. Used by the alert worker.
func (s *SQLiteStore) ActiveBudgets(ctx context.Context, day core.Date) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE start_date <= ? AND end_date >= ? ORDER BY id`,
		day.String(), day.String())
	if err != nil {
		return nil, storeErr("query active budgets", err)
	}
	defer rows.Close()
	return scanBudgets(rows)
}

// UpdateBudget rewrites a budget's mutable fields.
func (s *SQLiteStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.Touch(s.now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets
		 SET name = ?, amount_cents = ?, period = ?, start_date = ?, end_date = ?,
		     category_id = ?, alert_threshold = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		b.Name, b.Amount.Cents, string(b.Period), b.StartDate.String(), b.EndDate.String(),
		b.CategoryID, b.AlertThreshold, b.UpdatedAt, b.ID, b.OwnerID)
	if err != nil {
		return storeErr("update budget", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update budget rows", err)
	}
	if n == 0 {
		return core.NotFoundf("budget %d for owner %d", b.ID, b.OwnerID)
	}
	return nil
}

// RecordAlert flips the budget's sent-flag with a guarded single-row
// update and inserts the alert row in the same transaction. When the
// flag was already set, another evaluation won the race: nothing is
// written and recorded is false. This is the per-budget serialization
// the evaluation boundary requires.
func (s *SQLiteStore) RecordAlert(ctx context.Context, budgetID int64, kind core.AlertKind, message string) (core.BudgetAlert, bool, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BudgetAlert{}, false, storeErr("begin record alert", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE budgets SET alert_sent = 1, updated_at = ? WHERE id = ? AND alert_sent = 0`,
		now, budgetID)
	if err != nil {
		return core.BudgetAlert{}, false, storeErr("flip alert sent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.BudgetAlert{}, false, storeErr("flip alert sent rows", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM budgets WHERE id = ?`, budgetID).Scan(&exists)
		if err != nil {
			return core.BudgetAlert{}, false, storeErr("record alert budget lookup", err)
		}
		return core.BudgetAlert{}, false, nil
	}

	alert := core.BudgetAlert{
		BudgetID:  budgetID,
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
	}
	ins, err := tx.ExecContext(ctx,
		`INSERT INTO budget_alerts (budget_id, message, kind, is_read, created_at)
		 VALUES (?, ?, ?, 0, ?)`,
		alert.BudgetID, alert.Message, string(alert.Kind), alert.CreatedAt)
	if err != nil {
		return core.BudgetAlert{}, false, storeErr("insert budget alert", err)
	}
	alert.ID, err = ins.LastInsertId()
	if err != nil {
		return core.BudgetAlert{}, false, storeErr("insert budget alert id", err)
	}

	if err := tx.Commit(); err != nil {
		return core.BudgetAlert{}, false, storeErr("commit record alert", err)
	}

	slog.InfoContext(ctx, "budget alert recorded",
		"budget_id", budgetID,
		"kind", string(kind),
		"alert_id", alert.ID)
	return alert, true, nil
}

// ResetAlertSent clears the sent-flag so the next Warning or Exceeded
// evaluation may raise again. Resets are always explicit external
// actions, never engine side effects.
func (s *SQLiteStore) ResetAlertSent(ctx context.Context, budgetID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET alert_sent = 0, updated_at = ? WHERE id = ?`,
		s.now(), budgetID)
	if err != nil {
		return storeErr("reset alert sent", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("reset alert sent rows", err)
	}
	if n == 0 {
		return core.NotFoundf("budget %d", budgetID)
	}
	return nil
}

// UnreadAlerts returns the owner's unread alerts, newest first.
func (s *SQLiteStore) UnreadAlerts(ctx context.Context, ownerID int64) ([]core.BudgetAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.budget_id, a.message, a.kind, a.is_read, a.created_at
		 FROM budget_alerts a
		 JOIN budgets b ON b.id = a.budget_id
		 WHERE b.owner_id = ? AND a.is_read = 0
		 ORDER BY a.created_at DESC, a.id DESC`,
		ownerID)
	if err != nil {
		return nil, storeErr("query unread alerts", err)
	}
	defer rows.Close()

	var alerts []core.BudgetAlert
	for rows.Next() {
		var (
			a    core.BudgetAlert
			kind string
		)
		if err := rows.Scan(&a.ID, &a.BudgetID, &a.Message, &kind, &a.Read, &a.CreatedAt); err != nil {
			return nil, storeErr("scan alert", err)
		}
		a.Kind = core.AlertKind(kind)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate alerts", err)
	}
	return alerts, nil
}

// MarkAlertRead sets the read-flag, the only mutation an alert permits.
func (s *SQLiteStore) MarkAlertRead(ctx context.Context, alertID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE budget_alerts SET is_read = 1 WHERE id = ?`, alertID)
	if err != nil {
		return storeErr("mark alert read", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("mark alert read rows", err)
	}
	if n == 0 {
		return core.NotFoundf("alert %d", alertID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b          core.Budget
		period     string
		startStr   string
		endStr     string
		categoryID sql.NullInt64
	)
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount.Cents, &period, &startStr, &endStr,
		&categoryID, &b.AlertThreshold, &b.AlertSent, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return core.Budget{}, err
	}
	b.Period = core.BudgetPeriod(period)
	if b.StartDate, err = parseDate(startStr); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseDate(endStr); err != nil {
		return core.Budget{}, err
	}
	if categoryID.Valid {
		id := categoryID.Int64
		b.CategoryID = &id
	}
	return b, nil
}

func scanBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, storeErr("scan budget", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate budgets", err)
	}
	return budgets, nil
}
