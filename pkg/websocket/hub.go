package websocket

import (
	"sync"

	"veshop-backend/pkg/logger"

	"go.uber.org/zap"
)

// Client is one connected admin dashboard session.
type Client struct {
	ID     string
	UserID string
	Send   chan []byte
	Hub    *Hub
	Conn   *Connection
}

// Hub fans order events out to every connected admin client.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *BroadcastMessage
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// BroadcastMessage is one event on the wire.
type BroadcastMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NewHub creates a hub. Call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("🔌 WebSocket client registered",
				zap.String("client_id", client.ID),
				zap.Int("total", total),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("🔌 WebSocket client unregistered",
				zap.String("client_id", client.ID),
			)

		case message := <-h.broadcast:
			data := message.ToJSON()
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.Send <- data:
				default:
					// Slow consumer, drop the connection.
					h.mu.Lock()
					if _, ok := h.clients[client]; ok {
						close(client.Send)
						delete(h.clients, client)
					}
					h.mu.Unlock()
				}
			}
			logger.Debug("📡 WebSocket broadcast",
				zap.String("type", message.Type),
				zap.Int("clients", len(clients)),
			)
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(messageType string, payload interface{}) {
	h.broadcast <- &BroadcastMessage{
		Type:    messageType,
		Payload: payload,
	}
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
