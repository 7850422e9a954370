package amqp

import (
	"testing"
	"time"
)

func TestNewEntryChangedMessage(t *testing.T) {
	msg := NewEntryChangedMessage("entry-1", OpCreated, "what-if")

	if msg.EntryID != "entry-1" {
		t.Errorf("EntryID = %q, want entry-1", msg.EntryID)
	}
	if msg.Op != OpCreated {
		t.Errorf("Op = %q, want %q", msg.Op, OpCreated)
	}
	if msg.ScenarioID != "what-if" {
		t.Errorf("ScenarioID = %q, want what-if", msg.ScenarioID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestEntryChangedMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &EntryChangedMessage{
		EntryID:   "entry-1",
		Op:        OpDeleted,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := EntryChangedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("EntryChangedMessageFromJSON() error = %v", err)
	}

	if parsedMsg.EntryID != msg.EntryID {
		t.Errorf("Parsed EntryID = %v, want %v", parsedMsg.EntryID, msg.EntryID)
	}
	if parsedMsg.Op != msg.Op {
		t.Errorf("Parsed Op = %v, want %v", parsedMsg.Op, msg.Op)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestEntryChangedMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"entry_id": 42, "op": "created"}`)

	if _, err := EntryChangedMessageFromJSON(invalidJSON); err == nil {
		t.Error("EntryChangedMessageFromJSON() should fail with invalid JSON")
	}
}
