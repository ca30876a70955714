package amqp

import (
	"testing"

	"budgeteer/internal/core"
)

func TestNewBudgetAlertMessage(t *testing.T) {
	catID := int64(7)
	b := core.Budget{
		ID:         42,
		OwnerID:    3,
		Name:       "Groceries",
		Amount:     core.Money{Cents: 20000},
		CategoryID: &catID,
	}

	msg := NewBudgetAlertMessage(b, core.AlertExceeded, 105, core.Money{Cents: 21000}, "over the limit")

	if msg.MessageID == "" {
		t.Error("MessageID must be generated")
	}
	if msg.BudgetID != 42 || msg.OwnerID != 3 || msg.BudgetName != "Groceries" {
		t.Errorf("identity fields = %+v", msg)
	}
	if msg.Kind != core.AlertExceeded || msg.PercentUsed != 105 {
		t.Errorf("evaluation fields = %+v", msg)
	}
	if msg.SpentCents != 21000 || msg.LimitCents != 20000 {
		t.Errorf("amount fields = spent %d, limit %d", msg.SpentCents, msg.LimitCents)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp must be set")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := BudgetAlertMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.MessageID != msg.MessageID || back.SpentCents != msg.SpentCents || back.Kind != msg.Kind {
		t.Errorf("round trip = %+v, want %+v", back, msg)
	}
}

func TestBudgetAlertMessageFromJSONMalformed(t *testing.T) {
	if _, err := BudgetAlertMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("malformed payload must fail to parse")
	}
}
