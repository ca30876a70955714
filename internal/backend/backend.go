// Package backend selects and constructs the store implementation the
// binaries run against.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgeteer/internal/core"
	"budgeteer/internal/engine"
	"budgeteer/internal/memstore"
	"budgeteer/internal/storage"
)

// Store is the full persistence surface the binaries need: the engine's
// read interfaces plus the alert lifecycle writes.
type Store interface {
	engine.ExpenseStore
	engine.BudgetStore

	ActiveBudgets(ctx context.Context, day core.Date) ([]core.Budget, error)
	RecordAlert(ctx context.Context, budgetID int64, kind core.AlertKind, message string) (core.BudgetAlert, bool, error)
	ResetAlertSent(ctx context.Context, budgetID int64) error
	UnreadAlerts(ctx context.Context, ownerID int64) ([]core.BudgetAlert, error)
	MarkAlertRead(ctx context.Context, alertID int64) error
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result holds the constructed store and its cleanup function.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Type names a store implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds what backend construction needs.
type Config struct {
	Type         Type
	SQLiteDBPath string
}

// Open builds the store named by the config.
func Open(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		store, err := storage.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		slog.InfoContext(ctx, "initialized sqlite backend", "db_path", config.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		store := memstore.New()
		slog.InfoContext(ctx, "initialized memory backend")
		return &Result{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
