package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseSyncMessage asks the sheets worker to mirror one expense row.
// It carries only the row id; the worker reads the full expense from the
// database so the message never goes stale.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id, userID int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
