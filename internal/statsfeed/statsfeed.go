// Package statsfeed is the admin-only WebSocket fan-out of spec.md §6:
// it pushes each JSON event handed to Broadcast to every subscriber.
// The daemon broadcasts the latest POOLSTATS row on a fixed interval,
// each BLOCKS state change, and each new OPTIONCONTROL row; a change in
// the resolved OPTIONCONTROL winner with no new row produces no event.
// It never sits on the miner-facing connector path (internal/connector).
package statsfeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/poolcore/ckdb/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// EventType names one of the three event kinds the feed emits.
type EventType string

const (
	EventPoolStats EventType = "poolstats"
	EventBlock     EventType = "block"
	EventOption    EventType = "option"
)

// Event is the wire shape pushed to every subscriber.
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// client is one connected dashboard socket.
type client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub owns the subscriber set under a single goroutine, mirroring the
// register/unregister/broadcast channel trio of a classic Go WebSocket
// hub: one owner goroutine applies every change to the client map, and
// mu guards the map so ClientCount can read it from other goroutines,
// while Broadcast stays a cheap non-blocking send into that goroutine's
// inbox.
type Hub struct {
	log *logging.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	broadcast  chan *Event
	register   chan *client
	unregister chan *client

	nowFn func() int64
}

// NewHub builds a Hub. nowFn defaults to time.Now().Unix and exists so
// tests can supply a fixed clock.
func NewHub() *Hub {
	return &Hub{
		log:        logging.GetDefault().Component("statsfeed"),
		clients:    make(map[*client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		nowFn:      func() int64 { return time.Now().Unix() },
	}
}

// Run drives the hub's event loop. Call it in its own goroutine; it
// exits when stop is closed.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*client]bool)
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug("dashboard client connected", "clients", len(h.clients))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.log.Debug("dashboard client disconnected", "clients", len(h.clients))

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("failed to marshal stats event", "error", err)
				continue
			}
			h.deliver(data)
		}
	}
}

func (h *Hub) deliver(data []byte) {
	h.mu.RLock()
	dead := make([]*client, 0)
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			dead = append(dead, c)
		}
	}
	h.mu.RUnlock()

	if len(dead) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range dead {
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// Broadcast publishes one event to every connected dashboard client.
// Non-blocking: if the hub's internal inbox is full the event is
// dropped and logged at warn, per spec.md §4.12.
func (h *Hub) Broadcast(eventType EventType, data interface{}) {
	ev := &Event{Type: eventType, Data: data, Timestamp: h.nowFn()}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("stats broadcast channel full, dropping event", "type", eventType)
	}
}

// ClientCount reports the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades r to a WebSocket and registers the connection with
// the hub. Mount at /stats/ws.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64), hub: h}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump drains and discards inbound frames purely to notice the
// connection closing; the feed is one-directional.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
