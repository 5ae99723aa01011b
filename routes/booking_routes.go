package routes

import (
	"github.com/anjiri1684/appointment_reminder/handlers"
	"github.com/anjiri1684/appointment_reminder/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, h *handlers.BookingHandler, secret string) {
	api := app.Group("/api/v1")

	api.Post("/bookings", h.CreateBooking)

	booking := api.Group("/bookings", middleware.Protected(secret), middleware.AdminRequired())
	booking.Get("", h.ListBookings)
	booking.Get("/:bookingId", h.GetBooking)
	booking.Put("/:bookingId", h.UpdateBooking)
}
