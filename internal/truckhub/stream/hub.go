// Package stream pushes status changes and notifications to connected
// consumer apps over WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/truckwatch-io/truckwatch/internal/truckhub/core"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/model"
	"github.com/truckwatch-io/truckwatch/pkg/log"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Event types sent to clients.
const (
	EventStatus       = "status"
	EventNotification = "notification"
)

// Event is the envelope of every message written to a client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hooks are called when a user's first connection opens and when the last
// one closes.
type Hooks struct {
	OnConnect    func(ctx context.Context, userID string) error
	OnDisconnect func(userID string)
}

// Hub tracks the open connections per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client            // connection id -> client
	byUser  map[string]map[string]*client // userID -> connection id -> client

	// hookMu orders the hooks with the per-user reference counts. A
	// reference is taken before the upgrade and dropped after unregister.
	hookMu sync.Mutex
	refs   map[string]int

	hooks    Hooks
	upgrader websocket.Upgrader
}

var (
	_ core.StatusPublisher       = (*Hub)(nil)
	_ core.NotificationPublisher = (*Hub)(nil)
)

func NewHub(hooks Hooks) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		byUser:  make(map[string]map[string]*client),
		refs:    make(map[string]int),
		hooks:   hooks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Consumer apps connect from any origin; callers are identified
			// by path only.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type client struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
}

// ServeWS upgrades the request and streams events for userID until the
// connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.acquire(r.Context(), userID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err, "WebSocket upgrade failed", "userID", userID)
		h.release(userID)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    h,
	}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

// acquire takes a reference for userID, calling OnConnect for the first one.
func (h *Hub) acquire(ctx context.Context, userID string) error {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()

	if h.refs[userID] == 0 && h.hooks.OnConnect != nil {
		if err := h.hooks.OnConnect(ctx, userID); err != nil {
			return err
		}
	}
	h.refs[userID]++
	return nil
}

// release drops a reference for userID, calling OnDisconnect for the last one.
func (h *Hub) release(userID string) {
	h.hookMu.Lock()
	defer h.hookMu.Unlock()

	h.refs[userID]--
	if h.refs[userID] > 0 {
		return
	}
	delete(h.refs, userID)
	if h.hooks.OnDisconnect != nil {
		h.hooks.OnDisconnect(userID)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[string]*client)
	}
	h.byUser[c.userID][c.id] = c
	log.Debug("Stream client connected", "userID", c.userID, "connID", c.id)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)

	if conns := h.byUser[c.userID]; conns != nil {
		delete(conns, c.id)
		if len(conns) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	h.mu.Unlock()

	log.Debug("Stream client disconnected", "userID", c.userID, "connID", c.id)
	h.release(c.userID)
}

// Connected reports whether the user has at least one open connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.byUser[userID]) > 0
}

// PublishStatus sends the transition to every connected client.
func (h *Hub) PublishStatus(_ context.Context, tr model.Transition) error {
	msg, err := json.Marshal(Event{Type: EventStatus, Data: tr})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue(msg)
	}
	return nil
}

// Notify sends the notification to the user's connections. A user without
// connections is not an error.
func (h *Hub) Notify(_ context.Context, n *model.Notification) error {
	msg, err := json.Marshal(Event{Type: EventNotification, Data: n})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.byUser[n.UserID] {
		c.enqueue(msg)
	}
	return nil
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
}

// enqueue drops the message when the client is too slow to keep up.
// Callers hold h.mu.
func (c *client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		log.Warn("Dropping stream message for slow client", "userID", c.userID, "connID", c.id)
	}
}

// readPump discards client messages and detects closed connections.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("Stream read error", "userID", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("Stream write failed", "userID", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
