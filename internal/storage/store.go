// Package storage is the SQLite-backed store. It implements the engine
// query seams with SQL predicates equivalent to the engine's pure filter
// semantics, plus the write paths used by callers and the alert
// collaborator.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/engine"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ engine.ExpenseStore = (*SQLiteStore)(nil)
var _ engine.BudgetStore = (*SQLiteStore)(nil)

// Open opens (creating if necessary) the SQLite database at dbPath and
// applies pending migrations.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// storeErr translates driver failures into the engine error taxonomy.
func storeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundf("%s", op)
	}
	return core.StorageError(op, err)
}

// expenseFilterSQL renders the filter into WHERE fragments and args.
// The produced predicates match engine.Filter.Matches exactly: inclusive
// bounds, set membership, any-tag overlap and case-insensitive substring
// search on title or description.
func expenseFilterSQL(ownerID int64, f engine.Filter) (string, []any) {
	where := []string{"e.owner_id = ?"}
	args := []any{ownerID}

	if !f.StartDate.IsZero() {
		where = append(where, "e.expense_date >= ?")
		args = append(args, f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		where = append(where, "e.expense_date <= ?")
		args = append(args, f.EndDate.String())
	}
	if len(f.CategoryIDs) > 0 {
		where = append(where, "e.category_id IN ("+placeholders(len(f.CategoryIDs))+")")
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if len(f.TagIDs) > 0 {
		where = append(where,
			"EXISTS (SELECT 1 FROM expense_tags et WHERE et.expense_id = e.id AND et.tag_id IN ("+placeholders(len(f.TagIDs))+"))")
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
	}
	if f.MinAmount != nil {
		where = append(where, "e.amount_cents >= ?")
		args = append(args, f.MinAmount.Cents)
	}
	if f.MaxAmount != nil {
		where = append(where, "e.amount_cents <= ?")
		args = append(args, f.MaxAmount.Cents)
	}
	if f.Search != "" {
		where = append(where, "(e.title LIKE ? ESCAPE '\\' OR e.description LIKE ? ESCAPE '\\')")
		pattern := "%" + escapeLike(f.Search) + "%"
		args = append(args, pattern, pattern)
	}

	return strings.Join(where, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// QueryExpenses implements engine.ExpenseStore.
func (s *SQLiteStore) QueryExpenses(ctx context.Context, ownerID int64, f engine.Filter, p engine.Page) ([]core.Expense, int, error) {
	where, args := expenseFilterSQL(ownerID, f)

	var total int
	countQuery := "SELECT COUNT(*) FROM expenses e WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, storeErr("count expenses", err)
	}

	query := `
		SELECT e.id, e.owner_id, e.title, e.description, e.amount_cents,
		       e.expense_date, e.category_id, e.receipt_url, e.created_at, e.updated_at,
		       c.name, c.color, c.icon
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE ` + where + `
		ORDER BY e.expense_date DESC, e.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, p.Size, p.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, storeErr("query expenses", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			dateStr string
		)
		err := rows.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Description, &e.Amount.Cents,
			&dateStr, &e.CategoryID, &e.ReceiptURL, &e.CreatedAt, &e.UpdatedAt,
			&e.Category.Name, &e.Category.Color, &e.Category.Icon)
		if err != nil {
			return nil, 0, storeErr("scan expense", err)
		}
		e.Date, err = parseDate(dateStr)
		if err != nil {
			return nil, 0, storeErr("parse expense date", err)
		}
		e.Category.ID = e.CategoryID
		e.Category.OwnerID = e.OwnerID
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("iterate expenses", err)
	}

	if err := s.loadTags(ctx, expenses); err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// loadTags attaches the tag rows of the page's expenses.
func (s *SQLiteStore) loadTags(ctx context.Context, expenses []core.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	index := make(map[int64]*core.Expense, len(expenses))
	args := make([]any, 0, len(expenses))
	for i := range expenses {
		index[expenses[i].ID] = &expenses[i]
		args = append(args, expenses[i].ID)
	}

	query := `
		SELECT et.expense_id, t.id, t.owner_id, t.name, t.color, t.created_at, t.updated_at
		FROM expense_tags et
		JOIN tags t ON t.id = et.tag_id
		WHERE et.expense_id IN (` + placeholders(len(args)) + `)
		ORDER BY t.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return storeErr("query expense tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			expenseID int64
			t         core.Tag
		)
		if err := rows.Scan(&expenseID, &t.ID, &t.OwnerID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return storeErr("scan expense tag", err)
		}
		if e, ok := index[expenseID]; ok {
			e.Tags = append(e.Tags, t)
		}
	}
	return rows.Err()
}

// SumExpenses implements engine.ExpenseStore. Summation stays in SQL on
// integer cents.
func (s *SQLiteStore) SumExpenses(ctx context.Context, ownerID int64, start, end core.Date, categoryID *int64) (core.Money, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE owner_id = ? AND expense_date >= ? AND expense_date <= ?`
	args := []any{ownerID, start.String(), end.String()}
	if categoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *categoryID)
	}

	var cents int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, storeErr("sum expenses", err)
	}
	return core.Money{Cents: cents}, nil
}

// CreateCategory inserts a category for the owner.
func (s *SQLiteStore) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	now := s.now()
	c.CreatedAt = now
	c.Touch(now)
	if c.Color == "" {
		c.Color = "#3B82F6"
	}
	if c.Icon == "" {
		c.Icon = "category"
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, color, icon, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.OwnerID, c.Name, c.Color, c.Icon, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return core.Category{}, storeErr("create category", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, storeErr("create category id", err)
	}
	return c, nil
}

// CreateTag inserts a tag for the owner.
func (s *SQLiteStore) CreateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	if err := t.Validate(); err != nil {
		return core.Tag{}, err
	}
	now := s.now()
	t.CreatedAt = now
	t.Touch(now)
	if t.Color == "" {
		t.Color = "#10B981"
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (owner_id, name, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.OwnerID, t.Name, t.Color, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return core.Tag{}, storeErr("create tag", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Tag{}, storeErr("create tag id", err)
	}
	return t, nil
}

// CreateExpense inserts an expense and its tag join rows.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := s.now()
	e.CreatedAt = now
	e.Touch(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, storeErr("begin create expense", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (owner_id, title, description, amount_cents, expense_date,
		                       category_id, receipt_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.Title, e.Description, e.Amount.Cents, e.Date.String(),
		e.CategoryID, e.ReceiptURL, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.Expense{}, storeErr("create expense", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, storeErr("create expense id", err)
	}

	for _, tag := range e.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expense_tags (expense_id, tag_id) VALUES (?, ?)`,
			e.ID, tag.ID); err != nil {
			return core.Expense{}, storeErr("attach expense tag", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Expense{}, storeErr("commit create expense", err)
	}

	slog.DebugContext(ctx, "expense created",
		"id", e.ID,
		"owner_id", e.OwnerID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

// UpdateExpense rewrites the mutable fields of an expense. The
// modification timestamp is set explicitly through the Touchable
// contract.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Touch(s.now())

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses
		 SET title = ?, description = ?, amount_cents = ?, expense_date = ?,
		     category_id = ?, receipt_url = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		e.Title, e.Description, e.Amount.Cents, e.Date.String(),
		e.CategoryID, e.ReceiptURL, e.UpdatedAt, e.ID, e.OwnerID)
	if err != nil {
		return storeErr("update expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update expense rows", err)
	}
	if n == 0 {
		return core.NotFoundf("expense %d for owner %d", e.ID, e.OwnerID)
	}
	return nil
}

// DeleteExpense removes an expense; the tag join rows cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, ownerID, expenseID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND owner_id = ?`, expenseID, ownerID)
	if err != nil {
		return storeErr("delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("delete expense rows", err)
	}
	if n == 0 {
		return core.NotFoundf("expense %d for owner %d", expenseID, ownerID)
	}
	return nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(t), nil
}
