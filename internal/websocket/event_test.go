package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":          1,
		"description": "Test Transaction",
		"amount":      "100.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
	after := time.Now()

	assert.Equal(t, "transaction.created", evt.Type)
	assert.Equal(t, EntityTypeTransaction, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"id":          float64(1),
		"description": "Test Transaction",
		"amount":      "100.00",
	}

	evt := Event{
		Type:      "transaction.created",
		Entity:    EntityTypeTransaction,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, payload, decoded.Payload)
	assert.True(t, evt.Timestamp.Equal(decoded.Timestamp))
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantType string
		entity   EntityType
	}{
		{"transaction created", TransactionCreated(nil), "transaction.created", EntityTypeTransaction},
		{"transaction updated", TransactionUpdated(nil), "transaction.updated", EntityTypeTransaction},
		{"transaction deleted", TransactionDeleted(nil), "transaction.deleted", EntityTypeTransaction},
		{"recurring created", RecurringCreated(nil), "recurring.created", EntityTypeRecurring},
		{"recurring generated", RecurringGenerated(nil), "recurring.generated", EntityTypeRecurring},
		{"budget created", BudgetCreated(nil), "budget.created", EntityTypeBudget},
		{"budget updated", BudgetUpdated(nil), "budget.updated", EntityTypeBudget},
		{"budget deleted", BudgetDeleted(nil), "budget.deleted", EntityTypeBudget},
		{"category updated", CategoryUpdated(nil), "category.updated", EntityTypeCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.event.Type)
			assert.Equal(t, tt.entity, tt.event.Entity)
		})
	}
}
