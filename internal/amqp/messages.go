package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"homebudget/internal/core"
)

// BudgetAlertMessage is published when a budget escalates to a worse tier.
type BudgetAlertMessage struct {
	BudgetID  string         `json:"budget_id"`
	Category  string         `json:"category"`
	Tier      core.StatusTier `json:"tier"`
	Progress  string         `json:"progress"`
	Allocated core.Money     `json:"allocated"`
	Spent     core.Money     `json:"spent"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewBudgetAlertMessage snapshots a budget status into an alert.
func NewBudgetAlertMessage(status core.BudgetStatus) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:  status.ID,
		Category:  status.Category,
		Tier:      status.Tier,
		Progress:  status.Progress.StringFixed(2),
		Allocated: status.Allocated,
		Spent:     status.Spent,
		Timestamp: time.Now().UTC(),
	}
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Category == "" {
		return nil, fmt.Errorf("budget alert without category")
	}
	return &msg, nil
}

// Ledger event actions.
const (
	ActionTransactionAdded   = "transaction.added"
	ActionTransactionDeleted = "transaction.deleted"
	ActionBudgetAdded        = "budget.added"
	ActionBudgetDeleted      = "budget.deleted"
)

// LedgerEventMessage announces a mutation. It carries ids only; consumers
// read current state through the API.
type LedgerEventMessage struct {
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Category  string    `json:"category,omitempty"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(action, id, category string, version uint64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Action:    action,
		ID:        id,
		Category:  category,
		Version:   version,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
