package amqp

import (
	"encoding/json"
	"time"
)

// Operations carried by an EntryChangedMessage.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// EntryChangedMessage notifies workers that a ledger entry changed.
// It carries only identifiers; consumers reload state from storage and
// rebuild the affected projection.
type EntryChangedMessage struct {
	EntryID    string    `json:"entry_id"`
	Op         string    `json:"op"`
	ScenarioID string    `json:"scenario_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEntryChangedMessage creates a change notification for an entry.
func NewEntryChangedMessage(entryID, op, scenarioID string) *EntryChangedMessage {
	return &EntryChangedMessage{
		EntryID:    entryID,
		Op:         op,
		ScenarioID: scenarioID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryChangedMessageFromJSON creates a message from JSON bytes
func EntryChangedMessageFromJSON(data []byte) (*EntryChangedMessage, error) {
	var msg EntryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
