package api

import (
	"context"
	"log"

	"github.com/example/private-chat-demo/modules/presence"
	"github.com/gofiber/contrib/websocket"
)

// handleWebSocket handles WebSocket connections at /ws?token=<jwt>.
// The connection is authenticated before registration; the registry then
// binds the user to this handle and pushes presence and new-message events
// until the connection drops.
func (m *APIModule) handleWebSocket(c *websocket.Conn) {
	token := c.Query("token")
	if token == "" {
		_ = c.WriteJSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Token query parameter is required",
		})
		_ = c.Close()
		return
	}

	claims, err := m.authAdapter.ValidateToken(context.Background(), token)
	if err != nil {
		_ = c.WriteJSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired token",
		})
		_ = c.Close()
		return
	}

	client := presence.NewClient(claims.UserID, c)
	m.hub.Register(client)
	defer func() {
		// A drop is treated exactly like an explicit disconnect. The hub
		// ignores this if a newer connection already replaced the binding.
		m.hub.Unregister(client)
		log.Printf("[api] WebSocket client disconnected: %s", claims.UserID)
	}()

	log.Printf("[api] WebSocket client connected: %s", claims.UserID)

	// Push-only channel: inbound frames are drained until the connection
	// closes so control frames keep being processed.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", claims.UserID)
			} else {
				log.Printf("[api] Read error from %s: %v", claims.UserID, err)
			}
			return
		}
	}
}
