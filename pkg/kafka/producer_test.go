package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expensePayload struct {
	ExpenseID string  `json:"expense_id"`
	Amount    float64 `json:"amount"`
	Category  string  `json:"category"`
}

func TestNewEvent_Envelope(t *testing.T) {
	payload := expensePayload{ExpenseID: "exp-81", Amount: 42.30, Category: "Groceries"}

	event, err := NewEvent("expense.created", "exp-81", "expense", "spendtrack", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "expense.created", event.EventType)
	assert.Equal(t, "exp-81", event.AggregateID)
	assert.Equal(t, "expense", event.AggregateType)
	assert.Equal(t, "spendtrack", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)
	assert.NotNil(t, event.Metadata)

	var decoded expensePayload
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("expense.created", "exp-1", "expense", "spendtrack", make(chan int))
	require.Error(t, err)
}

func TestEvent_WireRoundTrip(t *testing.T) {
	original, err := NewEvent("user.updated", "user-7", "user", "spendtrack", map[string]string{"name": "Dana"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-abc").WithMetadata("ip", "203.0.113.9")

	wire, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(wire)
	require.NoError(t, err)

	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, original.EventType, restored.EventType)
	assert.Equal(t, original.AggregateID, restored.AggregateID)
	assert.Equal(t, original.CorrelationID, restored.CorrelationID)
	assert.Equal(t, original.Metadata, restored.Metadata)
	assert.JSONEq(t, string(original.Data), string(restored.Data))
	assert.WithinDuration(t, original.Timestamp, restored.Timestamp, time.Millisecond)
}

func TestEvent_BuildersChain(t *testing.T) {
	event, err := NewEvent("expense.deleted", "exp-2", "expense", "spendtrack", nil)
	require.NoError(t, err)

	result := event.WithCorrelationID("corr-xyz").WithMetadata("reason", "user request")

	assert.Same(t, event, result)
	assert.Equal(t, "corr-xyz", event.CorrelationID)
	assert.Equal(t, "user request", event.Metadata["reason"])
}

func TestEvent_WithMetadataInitializesMap(t *testing.T) {
	event := &Event{EventType: "expense.created"}

	event.WithMetadata("key", "value")

	assert.Equal(t, "value", event.Metadata["key"])
}

func TestEvent_UnmarshalData(t *testing.T) {
	payload := expensePayload{ExpenseID: "exp-3", Amount: 15, Category: "Transport"}
	event, err := NewEvent("expense.created", "exp-3", "expense", "spendtrack", payload)
	require.NoError(t, err)

	var target expensePayload
	require.NoError(t, event.UnmarshalData(&target))
	assert.Equal(t, payload, target)

	event.Data = json.RawMessage(`not valid json`)
	assert.Error(t, event.UnmarshalData(&target))
}

func TestUnmarshalEvent_BadInput(t *testing.T) {
	for _, input := range [][]byte{[]byte(`{broken json`), {}} {
		_, err := UnmarshalEvent(input)
		assert.Error(t, err)
	}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "spendtrack", TopicPrefix)

	tests := []struct {
		domain string
		action string
		want   string
	}{
		{"expense", "created", "spendtrack.expense.created"},
		{"expense", "updated", "spendtrack.expense.updated"},
		{"expense", "deleted", "spendtrack.expense.deleted"},
		{"user", "registered", "spendtrack.user.registered"},
		{"user", "updated", "spendtrack.user.updated"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Topic(tt.domain, tt.action))
	}
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"broker1:9092", "broker2:9092"})

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.False(t, cfg.Async, "publishes should block until acked")
}

func TestNewProducer_ClosesWithoutBroker(t *testing.T) {
	// The writer connects lazily, so construction and Close need no broker.
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokersConfigured(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}
