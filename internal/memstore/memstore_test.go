package memstore

import (
	"context"
	"testing"
	"time"

	"budgeteer/internal/core"
)

func seedStore(t *testing.T) (*Store, core.Budget) {
	t.Helper()
	s := New()
	s.SetClock(func() time.Time {
		return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	})
	b := s.AddBudget(core.Budget{
		OwnerID:        1,
		Name:           "January",
		Amount:         core.Money{Cents: 10000},
		StartDate:      core.NewDate(2024, 1, 1),
		EndDate:        core.NewDate(2024, 1, 31),
		AlertThreshold: 80,
	})
	return s, b
}

func TestRecordAlertFlipsFlagOnce(t *testing.T) {
	s, b := seedStore(t)
	ctx := context.Background()

	alert, recorded, err := s.RecordAlert(ctx, b.ID, core.AlertWarning, "over threshold")
	if err != nil {
		t.Fatalf("RecordAlert: %v", err)
	}
	if !recorded {
		t.Fatal("first RecordAlert should report recorded=true")
	}
	if alert.ID == 0 || alert.BudgetID != b.ID || alert.Kind != core.AlertWarning {
		t.Errorf("unexpected alert row: %+v", alert)
	}

	// Second call loses the race: no new row, no error.
	_, recorded, err = s.RecordAlert(ctx, b.ID, core.AlertWarning, "over threshold")
	if err != nil {
		t.Fatalf("second RecordAlert: %v", err)
	}
	if recorded {
		t.Error("second RecordAlert should report recorded=false")
	}

	got, err := s.BudgetByID(ctx, b.OwnerID, b.ID)
	if err != nil {
		t.Fatalf("BudgetByID: %v", err)
	}
	if !got.AlertSent {
		t.Error("sent-flag should be set after RecordAlert")
	}

	alerts, err := s.UnreadAlerts(ctx, b.OwnerID)
	if err != nil {
		t.Fatalf("UnreadAlerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("UnreadAlerts = %d rows, want 1", len(alerts))
	}
}

func TestRecordAlertMissingBudget(t *testing.T) {
	s, _ := seedStore(t)
	_, _, err := s.RecordAlert(context.Background(), 404, core.AlertWarning, "x")
	if !core.IsNotFound(err) {
		t.Errorf("RecordAlert on missing budget = %v, want not-found", err)
	}
}

func TestResetAlertSentAllowsNextRaise(t *testing.T) {
	s, b := seedStore(t)
	ctx := context.Background()

	if _, recorded, _ := s.RecordAlert(ctx, b.ID, core.AlertExceeded, "x"); !recorded {
		t.Fatal("first raise should record")
	}
	if err := s.ResetAlertSent(ctx, b.ID); err != nil {
		t.Fatalf("ResetAlertSent: %v", err)
	}
	if _, recorded, _ := s.RecordAlert(ctx, b.ID, core.AlertExceeded, "y"); !recorded {
		t.Error("raise after reset should record again")
	}

	alerts, _ := s.UnreadAlerts(ctx, b.OwnerID)
	if len(alerts) != 2 {
		t.Errorf("UnreadAlerts = %d rows, want 2", len(alerts))
	}
}

func TestMarkAlertRead(t *testing.T) {
	s, b := seedStore(t)
	ctx := context.Background()

	alert, _, err := s.RecordAlert(ctx, b.ID, core.AlertWarning, "x")
	if err != nil {
		t.Fatalf("RecordAlert: %v", err)
	}
	if err := s.MarkAlertRead(ctx, alert.ID); err != nil {
		t.Fatalf("MarkAlertRead: %v", err)
	}

	alerts, _ := s.UnreadAlerts(ctx, b.OwnerID)
	if len(alerts) != 0 {
		t.Errorf("UnreadAlerts after read = %d rows, want 0", len(alerts))
	}

	if err := s.MarkAlertRead(ctx, 404); !core.IsNotFound(err) {
		t.Errorf("MarkAlertRead on missing alert = %v, want not-found", err)
	}
}

func TestActiveBudgets(t *testing.T) {
	s, b := seedStore(t)
	s.AddBudget(core.Budget{
		OwnerID: 2, Name: "February",
		Amount: core.Money{Cents: 5000},
		StartDate: core.NewDate(2024, 2, 1), EndDate: core.NewDate(2024, 2, 29),
	})

	active, err := s.ActiveBudgets(context.Background(), core.NewDate(2024, 1, 15))
	if err != nil {
		t.Fatalf("ActiveBudgets: %v", err)
	}
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("ActiveBudgets = %+v, want only budget %d", active, b.ID)
	}
}

func TestUnreadAlertsScopedToOwner(t *testing.T) {
	s, b := seedStore(t)
	other := s.AddBudget(core.Budget{
		OwnerID: 2, Name: "Other owner",
		Amount: core.Money{Cents: 5000},
		StartDate: core.NewDate(2024, 1, 1), EndDate: core.NewDate(2024, 1, 31),
	})
	ctx := context.Background()

	s.RecordAlert(ctx, b.ID, core.AlertWarning, "mine")
	s.RecordAlert(ctx, other.ID, core.AlertWarning, "theirs")

	alerts, _ := s.UnreadAlerts(ctx, 1)
	if len(alerts) != 1 || alerts[0].BudgetID != b.ID {
		t.Errorf("UnreadAlerts(1) = %+v, want only budget %d's alert", alerts, b.ID)
	}
}
