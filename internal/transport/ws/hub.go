package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const MsgDashboardUpdated MessageType = "dashboard_updated"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans dashboard updates out to connected admins
type Hub struct {
	admins map[*Connection]struct{}
	mu     sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	logger *slog.Logger
}

// Connection represents one admin WebSocket
type Connection struct {
	ID     string
	UserID string
	Send   chan []byte
}

// NewHub creates a hub and starts its loop
func NewHub(logger *slog.Logger) *Hub {
	h := &Hub{
		admins:     make(map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.admins[conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("admin connected", "conn", conn.ID, "user", conn.UserID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.admins[conn]; ok {
				delete(h.admins, conn)
				close(conn.Send)
				h.logger.Info("admin disconnected", "conn", conn.ID)
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.admins {
				select {
				case conn.Send <- data:
				default:
					// slow client; drop
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for conn := range h.admins {
				close(conn.Send)
				delete(h.admins, conn)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// BroadcastToAdmins sends a message to every admin (implements service.Broadcaster)
func (h *Hub) BroadcastToAdmins(msgType string, payload interface{}) {
	data, err := Encode(MessageType(msgType), payload)
	if err != nil {
		h.logger.Error("failed to encode broadcast", "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Warn("broadcast queue full, dropping message", "type", msgType)
	}
}

// AdminCount returns the number of connected admins
func (h *Hub) AdminCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.admins)
}

// Close stops the hub and closes every connection
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Encode wraps payload in a Message envelope
func Encode(msgType MessageType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Payload: raw})
}
