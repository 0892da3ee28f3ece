package websocket

import (
	"encoding/json"
	"time"

	"veshop-backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Connection wraps the gorilla connection.
type Connection struct {
	ws *websocket.Conn
}

// ReadPump drains the socket so pong handlers run; the dashboard only
// listens, so inbound messages are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.ws.Close()
	}()

	c.Conn.ws.SetReadLimit(maxMessageSize)
	c.Conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.ws.SetPongHandler(func(string) error {
		c.Conn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.Conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
			}
			break
		}
	}
}

// WritePump pushes queued messages and keepalive pings to the socket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error",
					zap.String("client_id", c.ID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ToJSON serializes the message; on failure a minimal error frame is sent.
func (m *BroadcastMessage) ToJSON() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		logger.Error("Failed to marshal websocket message", zap.Error(err))
		return []byte(`{"type":"error"}`)
	}
	return data
}
