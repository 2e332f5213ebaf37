package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/daybook/pkg/logger"
)

func TestBroadcast_DeliversToClients(t *testing.T) {
	hub := NewLiveHub(logger.Discard())

	client := &liveClient{send: make(chan []byte, clientBufferSize)}
	hub.mu.Lock()
	hub.clients[client] = struct{}{}
	hub.mu.Unlock()

	require.Equal(t, 1, hub.ClientCount())

	hub.Broadcast("trades_imported", map[string]int{"imported": 3})

	msg := <-client.send
	var event LiveEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "trades_imported", event.Type)
	assert.False(t, event.Time.IsZero())
}

func TestBroadcast_DropsSlowClients(t *testing.T) {
	hub := NewLiveHub(logger.Discard())

	slow := &liveClient{send: make(chan []byte)} // unbuffered, never read
	hub.mu.Lock()
	hub.clients[slow] = struct{}{}
	hub.mu.Unlock()

	hub.Broadcast("trade_updated", nil)

	assert.Zero(t, hub.ClientCount())

	// The dropped client's channel is closed
	_, open := <-slow.send
	assert.False(t, open)
}

func TestBroadcast_NoClients(t *testing.T) {
	hub := NewLiveHub(logger.Discard())
	hub.Broadcast("trade_deleted", map[string]string{"id": "t1"})
	assert.Zero(t, hub.ClientCount())
}
