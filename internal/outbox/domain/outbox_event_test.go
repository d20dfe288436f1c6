package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEvent(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())

	event, err := NewOutboxEvent(EventUserRegistered, map[string]any{"user_id": userID})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventUserRegistered, event.EventType)
	assert.Equal(t, OutboxEventStatusPending, event.Status)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`"}`, event.Payload)

	_, err = NewOutboxEvent(EventUserLocked, map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
