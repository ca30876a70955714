package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"budgeteer/internal/core"
)

// BudgetAlertMessage is the payload handed to notification consumers
// when a budget crosses into Warning or Exceeded. The consumer side
// (mail, push, dashboards) resolves presentation; the message carries
// only the evaluation facts.
type BudgetAlertMessage struct {
	MessageID   string         `json:"message_id"`
	BudgetID    int64          `json:"budget_id"`
	OwnerID     int64          `json:"owner_id"`
	BudgetName  string         `json:"budget_name"`
	Kind        core.AlertKind `json:"kind"`
	PercentUsed float64        `json:"percent_used"`
	SpentCents  int64          `json:"spent_cents"`
	LimitCents  int64          `json:"limit_cents"`
	Message     string         `json:"message"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewBudgetAlertMessage builds a message with a fresh id and timestamp.
func NewBudgetAlertMessage(b core.Budget, kind core.AlertKind, percentUsed float64, spent core.Money, text string) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		MessageID:   uuid.NewString(),
		BudgetID:    b.ID,
		OwnerID:     b.OwnerID,
		BudgetName:  b.Name,
		Kind:        kind,
		PercentUsed: percentUsed,
		SpentCents:  spent.Cents,
		LimitCents:  b.Amount.Cents,
		Message:     text,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetAlertMessageFromJSON parses a message from JSON bytes.
func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
