package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to read messages from a WebSocket connection with a timeout.
func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	var msg WSMessage
	// Set a deadline to avoid tests hanging forever.
	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err, "Failed to read message from WebSocket")
	err = json.Unmarshal(p, &msg)
	require.NoError(t, err, "Failed to unmarshal WSMessage JSON")
	return msg
}

func presenceDevices(t *testing.T, msg WSMessage) []string {
	require.Equal(t, PresenceUpdateType, msg.Type)
	var p Presence
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	return p.Devices
}

func startHub(t *testing.T) (*Hub, string) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Authentication is the router's job; tests pass the user directly.
		ServeWs(hub, w, r, r.URL.Query().Get("user_id"))
	}))
	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	// Convert http:// to ws://
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestHubIntegration(t *testing.T) {
	hub, wsURL := startHub(t)

	// Two devices of alice and one of bob.
	phone, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=alice&device_id=phone", nil)
	require.NoError(t, err, "phone failed to connect")
	defer phone.Close()
	assert.Equal(t, []string{"phone"}, presenceDevices(t, readMessage(t, phone)))

	tablet, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=alice&device_id=tablet", nil)
	require.NoError(t, err, "tablet failed to connect")
	defer tablet.Close()
	assert.ElementsMatch(t, []string{"phone", "tablet"}, presenceDevices(t, readMessage(t, tablet)))
	assert.ElementsMatch(t, []string{"phone", "tablet"}, presenceDevices(t, readMessage(t, phone)))

	other, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=bob&device_id=laptop", nil)
	require.NoError(t, err, "bob failed to connect")
	defer other.Close()
	assert.Equal(t, []string{"laptop"}, presenceDevices(t, readMessage(t, other)))

	assert.Equal(t, 2, hub.Connected("alice"))
	assert.Equal(t, 1, hub.Connected("bob"))

	// A note change reaches every device of the owner.
	hub.NotifyUser("alice", "NOTE_UPDATED", map[string]string{"id": "n-1", "title": "Groceries"})

	for _, conn := range []*websocket.Conn{phone, tablet} {
		msg := readMessage(t, conn)
		assert.Equal(t, "NOTE_UPDATED", msg.Type)
		assert.Equal(t, "alice", msg.UserID)
		assert.JSONEq(t, `{"id":"n-1","title":"Groceries"}`, string(msg.Payload))
	}

	// ...and nothing leaks into another user's room.
	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = other.ReadMessage()
	require.Error(t, err, "bob must not receive alice's note events")
}

func TestHubPresenceOnLeave(t *testing.T) {
	hub, wsURL := startHub(t)

	phone, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=alice&device_id=phone", nil)
	require.NoError(t, err)
	defer phone.Close()
	_ = readMessage(t, phone)

	tablet, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?user_id=alice&device_id=tablet", nil)
	require.NoError(t, err)
	_ = readMessage(t, tablet)
	_ = readMessage(t, phone)

	require.NoError(t, tablet.Close())

	assert.Equal(t, []string{"phone"}, presenceDevices(t, readMessage(t, phone)))
	assert.Equal(t, 1, hub.Connected("alice"))
}

func TestNotifyUserWithoutDevices(t *testing.T) {
	hub := NewHub()

	// Nothing is running and nobody is connected; the call must not block.
	done := make(chan struct{})
	go func() {
		hub.NotifyUser("nobody", "NOTE_DELETED", map[string]string{"id": "n-1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyUser blocked")
	}
	assert.Len(t, hub.Broadcast, 1)
}

func TestNotifyUserDropsWhenSaturated(t *testing.T) {
	hub := NewHub()
	for i := 0; i < cap(hub.Broadcast); i++ {
		hub.NotifyUser("alice", "NOTE_CREATED", i)
	}

	hub.NotifyUser("alice", "NOTE_CREATED", "overflow")
	assert.Len(t, hub.Broadcast, cap(hub.Broadcast))
}
