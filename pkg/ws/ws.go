// Package ws streams screen state over WebSockets using gorilla/websocket.
//
// Each connected client is keyed by its session id, so a screen snapshot can
// be delivered only to the session that owns the screen:
//
//	var ScreenHub = ws.NewHub()
//	func init() { go ScreenHub.Run() }
//
//	// In the route handler:
//	ws.Upgrade(w, r, ScreenHub, sessionID)
//
//	// From the event bridge:
//	ScreenHub.SendTo(sessionID, snapshotJSON)
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins by default — restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client is a single connected WebSocket subscriber.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	Session string // session id this client belongs to
}

// readPump discards inbound frames (the stream is one-way) and detects
// disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ─────────────────────────────────────────────────────────────────────

type targeted struct {
	session string
	data    []byte
}

// Hub maintains the active WebSocket connections grouped by session id.
type Hub struct {
	clients    map[*Client]bool
	bySession  map[string]map[*Client]bool
	broadcast  chan []byte
	direct     chan targeted
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new Hub. Call hub.Run() in a goroutine at startup.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		bySession:  make(map[string]map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan targeted, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub event loop. Must be run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			if h.bySession[client.Session] == nil {
				h.bySession[client.Session] = make(map[*Client]bool)
			}
			h.bySession[client.Session][client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.bySession[client.Session], client)
				if len(h.bySession[client.Session]) == 0 {
					delete(h.bySession, client.Session)
				}
				close(client.send)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				client.queue(msg)
			}

		case t := <-h.direct:
			for client := range h.bySession[t.session] {
				client.queue(t.data)
			}
		}
	}
}

func (c *Client) queue(data []byte) {
	select {
	case c.send <- data:
	default:
		// Buffer full — drop; a fresh snapshot follows on the next transition.
	}
}

// Broadcast sends data to every connected client.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
	}
}

// SendTo sends data to all clients of one session.
func (h *Hub) SendTo(sessionID string, data []byte) {
	select {
	case h.direct <- targeted{session: sessionID, data: data}:
	default:
	}
}

// Upgrade turns an HTTP request into a WebSocket client registered on hub
// under sessionID.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, sessionID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		Session: sessionID,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}
