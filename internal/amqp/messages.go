package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseEventKind tells the export worker what changed.
type ExpenseEventKind string

const (
	ExpenseCreated ExpenseEventKind = "created"
	ExpenseUpdated ExpenseEventKind = "updated"
	ExpenseDeleted ExpenseEventKind = "deleted"
)

// ExpenseEvent is a lightweight change notification. It carries only the
// identifiers; the worker re-reads the authoritative rows from the store
// before exporting, so stale payloads can never overwrite fresher data.
type ExpenseEvent struct {
	Kind      ExpenseEventKind `json:"kind"`
	ExpenseID string           `json:"expense_id"`
	UserID    string           `json:"user_id"`
	Year      int              `json:"year"`
	Month     int              `json:"month"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewExpenseEvent(kind ExpenseEventKind, expenseID, userID string, year, month int) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:      kind,
		ExpenseID: expenseID,
		UserID:    userID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
