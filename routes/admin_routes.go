package routes

import (
	"github.com/anjiri1684/appointment_reminder/handlers"
	"github.com/anjiri1684/appointment_reminder/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, h *handlers.AdminHandler, feed *handlers.FeedHandler, secret string) {
	api := app.Group("/api/v1")

	// The feed authenticates inside the socket, so it sits outside the JWT group.
	api.Get("/admin/ws", feed.Upgrade, websocket.New(feed.ServeWs))

	admin := api.Group("/admin", middleware.Protected(secret), middleware.AdminRequired())
	admin.Get("/passes", h.ListPassKinds)
	admin.Post("/passes/:kind", h.TriggerPass)
}
