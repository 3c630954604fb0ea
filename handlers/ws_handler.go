package handlers

import (
	ws "github.com/classroomtt/tutor_marketplace/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func WebsocketUpgrade(c *fiber.Ctx) error {
	if websocketcontrib.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebsocketHandler registers the connection with the event hub and
// holds it open until the client goes away. The socket is push-only;
// inbound frames are discarded.
func WebsocketHandler() fiber.Handler {
	return websocketcontrib.New(func(conn *websocketcontrib.Conn) {
		token := conn.Locals("user").(*jwt.Token)
		claims := token.Claims.(jwt.MapClaims)
		userID, err := uuid.Parse(claims["user_id"].(string))
		if err != nil {
			conn.Close()
			return
		}

		client := &ws.Client{UserID: userID, Conn: conn}
		ws.Register <- client
		defer func() {
			ws.Unregister <- client
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
