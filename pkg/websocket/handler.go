package websocket

import (
	"database/sql"
	"net/http"
	"strings"

	"veshop-backend/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades admin dashboard connections after verifying the JWT
// and the admin role.
type Handler struct {
	hub       *Hub
	db        *sql.DB
	jwtSecret string
}

func NewHandler(hub *Hub, db *sql.DB, jwtSecret string) *Handler {
	return &Handler{hub: hub, db: db, jwtSecret: jwtSecret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on WebSocket upgrades, so the token
	// also comes in as a query parameter.
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		authHeader := r.Header.Get("Authorization")
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if tokenString == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.authenticate(tokenString)
	if err != nil {
		logger.Warn("WebSocket auth failed", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 64),
		Hub:    h.hub,
		Conn:   &Connection{ws: conn},
	}

	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) authenticate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenInvalidClaims
	}
	userID, _ := claims["id"].(string)
	if userID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}

	// Only admins see the live order feed.
	var role string
	if err := h.db.QueryRow("SELECT role FROM users WHERE id = $1", userID).Scan(&role); err != nil {
		return "", err
	}
	if role != "admin" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return userID, nil
}
