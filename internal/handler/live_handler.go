package handler

import (
	"go-storefront/internal/middleware"
	"go-storefront/internal/model"
	"go-storefront/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterLiveUpdates mounts the websocket feed at /ws. The handshake must
// pass requireAuth; a connection then receives stock events and the order
// events it is entitled to.
func RegisterLiveUpdates(app fiber.Router, hub *ws.Hub, requireAuth fiber.Handler) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, requireAuth, func(c *fiber.Ctx) error {
		c.Locals(localLiveClient, LiveSubscriber(c))
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		client := &ws.Client{Conn: c}
		if sub, ok := c.Locals(localLiveClient).(*ws.Client); ok {
			client.UserID, client.Staff = sub.UserID, sub.Staff
		}
		hub.Register <- client
		defer func() { hub.Unregister <- client }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}

const localLiveClient = "live_client"

// LiveSubscriber describes the authenticated caller as a feed subscriber.
// Holders of order:view_all see every order event.
func LiveSubscriber(c *fiber.Ctx) *ws.Client {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	privileges, _ := c.Locals(middleware.LocalPrivileges).([]string)
	sub := &ws.Client{UserID: userID}
	for _, p := range privileges {
		if p == model.PrivOrderViewAll {
			sub.Staff = true
			break
		}
	}
	return sub
}
