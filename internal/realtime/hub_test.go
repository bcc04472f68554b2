package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 8),
	}
}

func recvPayload(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.Send:
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("no payload received")
		return nil
	}
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	alice := uuid.New()
	bob := uuid.New()

	c1 := newTestClient(alice)
	c2 := newTestClient(alice) // second tab
	c3 := newTestClient(bob)
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)
	hub.RegisterClient(c3)
	// the loop is single threaded, so once this register is accepted the
	// three above are in the client map
	hub.RegisterClient(newTestClient(uuid.New()))

	hub.SendToUser(alice, map[string]interface{}{"type": "ping"})

	assert.Equal(t, "ping", recvPayload(t, c1)["type"])
	assert.Equal(t, "ping", recvPayload(t, c2)["type"])

	select {
	case <-c3.Send:
		t.Fatal("payload leaked to another user")
	default:
	}
}

func TestHubSendToConversation(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	alice := uuid.New()
	bob := uuid.New()

	ca := newTestClient(alice)
	cb := newTestClient(bob)
	hub.RegisterClient(ca)
	hub.RegisterClient(cb)
	hub.RegisterClient(newTestClient(uuid.New()))

	hub.SendToConversation(alice, bob, map[string]interface{}{"type": "new_message"})

	assert.Equal(t, "new_message", recvPayload(t, ca)["type"])
	assert.Equal(t, "new_message", recvPayload(t, cb)["type"])
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()

	alice := uuid.New()
	c := newTestClient(alice)
	hub.RegisterClient(c)
	hub.UnregisterClient(c)

	// the unregister closes the send channel
	select {
	case _, open := <-c.Send:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}

	hub.SendToUser(alice, map[string]interface{}{"type": "ping"})
}
