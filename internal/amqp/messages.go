package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseAddedMessage announces that one expense was appended to a user's
// ledger. It carries identifiers only; the scoring worker fetches the full
// ledger from the database before recomputing anomaly labels.
type ExpenseAddedMessage struct {
	UserID    int64     `json:"user_id"`
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseAddedMessage creates a new message for a freshly stored expense
func NewExpenseAddedMessage(userID, expenseID int64) *ExpenseAddedMessage {
	return &ExpenseAddedMessage{
		UserID:    userID,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseAddedMessageFromJSON creates a message from JSON bytes
func ExpenseAddedMessageFromJSON(data []byte) (*ExpenseAddedMessage, error) {
	var msg ExpenseAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
