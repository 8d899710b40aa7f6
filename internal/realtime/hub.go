package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Event is the envelope every websocket message travels in.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client wraps a websocket connection joined to a user channel.
type Client struct {
	conn    *websocket.Conn
	userKey string

	mu sync.Mutex // serializes writes to conn
}

// Send writes an event to this connection.
func (c *Client) Send(event string, data interface{}) error {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub tracks websocket connections per user channel and fans events out to
// them. Emission is best-effort by contract: EmitToUser cannot fail, it only
// reports whether at least one live connection received the event.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{} // channel key -> connections
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// channelKey derives the per-user channel name.
func channelKey(userID string) string {
	return "user_" + userID
}

// Add joins a connection to the user's channel.
func (h *Hub) Add(userID string, conn *websocket.Conn) *Client {
	key := channelKey(userID)
	c := &Client{conn: conn, userKey: key}

	h.mu.Lock()
	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[*Client]struct{})
	}
	h.rooms[key][c] = struct{}{}
	total := len(h.rooms[key])
	h.mu.Unlock()

	h.logger.Info("websocket connected", slog.String("channel", key), slog.Int("connections", total))
	return c
}

// Remove drops a connection from its channel and closes it.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if conns, ok := h.rooms[c.userKey]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, c.userKey)
		}
	}
	h.mu.Unlock()

	_ = c.conn.Close()
	h.logger.Info("websocket disconnected", slog.String("channel", c.userKey))
}

// EmitToUser publishes an event to every connection in the user's channel.
// Write failures are logged and the dead connection is dropped; there is no
// queueing of missed events.
func (h *Hub) EmitToUser(userID, event string, payload interface{}) bool {
	key := channelKey(userID)

	h.mu.RLock()
	conns := make([]*Client, 0, len(h.rooms[key]))
	for c := range h.rooms[key] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	delivered := false
	for _, c := range conns {
		if err := c.Send(event, payload); err != nil {
			h.logger.Warn("websocket emit failed",
				slog.String("channel", key),
				slog.String("event", event),
				slog.String("error", err.Error()),
			)
			h.Remove(c)
			continue
		}
		delivered = true
	}
	return delivered
}

// ConnectionCount returns how many connections a user currently has.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channelKey(userID)])
}
