package amqp

import (
	"encoding/json"
	"time"
)

// Record kinds.
const (
	KindTransaction = "transaction"
	KindBudget      = "budget"
)

// Record actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEvent announces a change to a stored record. It carries only the
// identity of the record; consumers read the current state from storage.
type RecordEvent struct {
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(kind, action, id string) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		Action:    action,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "<kind>.<action>", e.g. "budget.updated".
func (e *RecordEvent) RoutingKey() string {
	return e.Kind + "." + e.Action
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var ev RecordEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
