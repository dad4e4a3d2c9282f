package amqp

import (
	"encoding/json"
	"time"
)

// Event actions carried on the transaction events queue.
const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// TransactionEvent notifies consumers that transactions were written or
// removed. It carries only ids and routing hints; consumers fetch the full
// records from the store.
type TransactionEvent struct {
	Action         string    `json:"action"`
	TransactionIDs []string  `json:"transaction_ids"`
	CategoryID     string    `json:"category_id,omitempty"`
	EffectiveMonth string    `json:"effective_month"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(action string, ids []string, categoryID, effectiveMonth string) *TransactionEvent {
	return &TransactionEvent{
		Action:         action,
		TransactionIDs: ids,
		CategoryID:     categoryID,
		EffectiveMonth: effectiveMonth,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
