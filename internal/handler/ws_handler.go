package handler

import (
	"kitchen-backoffice/internal/middleware"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// WSUpgrade authenticates the upgrade request. Browsers cannot set headers
// on a websocket handshake, so the token comes from the "token" query
// parameter.
func WSUpgrade(profileRepo repository.ProfileRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		claims, _, err := middleware.Authenticate(profileRepo, c.Query("token"))
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		c.Locals("user_id", claims.UserID.String())
		return c.Next()
	}
}

// WSHandler registers the connection with the hub and keeps it open until
// the client goes away. Incoming frames are ignored.
func WSHandler(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		client := &ws.Client{Conn: c, UserID: userID}
		if !hub.Join(client) {
			_ = c.Close()
			return
		}
		defer hub.Leave(client)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
