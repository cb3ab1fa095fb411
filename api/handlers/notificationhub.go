package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin dashboard plus the mobile webview
	},
}

// NotificationHub tracks connected residents (username -> conn) so lifecycle
// notifications can be pushed without waiting for the next poll.
type NotificationHub struct {
	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub
func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients: make(map[string]*websocket.Conn),
	}
}

// HandleWebSocket upgrades the connection and registers the caller until the
// socket closes
func (h *NotificationHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		conn.Close()
		return
	}

	h.mutex.Lock()
	h.clients[username] = conn
	h.mutex.Unlock()
	zap.S().Debugf("user %s connected to /ws/notifications", username)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, username)
		h.mutex.Unlock()
		zap.S().Debugf("user %s disconnected from /ws/notifications", username)
		return nil
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// Push sends a notification to one connected user; a missing or broken
// connection is not an error, the poll API remains the source of truth.
func (h *NotificationHub) Push(username string, notification interface{}) {
	h.mutex.Lock()
	conn, exists := h.clients[username]
	h.mutex.Unlock()

	if !exists {
		return
	}
	err := conn.WriteJSON(map[string]interface{}{
		"event": "new_notification",
		"data":  notification,
	})
	if err != nil {
		zap.S().Warnw("failed to push notification", "user", username, "error", err)
		h.mutex.Lock()
		delete(h.clients, username)
		h.mutex.Unlock()
		conn.Close()
	}
}
