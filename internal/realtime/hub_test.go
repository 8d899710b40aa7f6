package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestClient spins up a server that registers the connection on the hub
// under userID, then dials it and returns the client side.
func dialTestClient(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(userID, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Wait for the server side to finish registering.
	require.Eventually(t, func() bool {
		return hub.ConnectionCount(userID) == 1
	}, time.Second, 10*time.Millisecond)

	return conn
}

func TestEmitToUser_DeliversEnvelope(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	conn := dialTestClient(t, hub, "u1")

	delivered := hub.EmitToUser("u1", "notification", map[string]interface{}{"title": "hi"})
	assert.True(t, delivered)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "notification", event.Event)
	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hi", data["title"])
}

func TestEmitToUser_NoListeners(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	delivered := hub.EmitToUser("nobody", "notification", nil)
	assert.False(t, delivered)
}

func TestEmitToUser_OtherUsersChannelUntouched(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	connA := dialTestClient(t, hub, "userA")

	delivered := hub.EmitToUser("userB", "notification", nil)
	assert.False(t, delivered, "userB has no connections")

	// userA must not receive userB's event
	require.NoError(t, connA.SetReadDeadline(time.Now().Add(100 * time.Millisecond)))
	_, _, err := connA.ReadMessage()
	assert.Error(t, err, "expected read timeout, got a message")
}

func TestRemoveDropsConnection(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	upgrader := websocket.Upgrader{}
	var client *Client
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client = hub.Add("u1", conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	<-registered
	require.Equal(t, 1, hub.ConnectionCount("u1"))

	hub.Remove(client)
	assert.Equal(t, 0, hub.ConnectionCount("u1"))
	assert.False(t, hub.EmitToUser("u1", "notification", nil))
}
