package routes

import (
	"github.com/classroomtt/tutor_marketplace/handlers"
	"github.com/classroomtt/tutor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", middleware.StudentRequired(), handlers.CreateBooking)
	booking.Get("/:bookingId", handlers.GetBooking)
	booking.Post("/:bookingId/accept-counter", middleware.StudentRequired(), handlers.AcceptCounter)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)
	booking.Post("/:bookingId/messages", handlers.PostBookingMessage)

	tutorBooking := api.Group("/tutor/bookings", middleware.Protected(), middleware.TutorRequired())
	tutorBooking.Get("/me", handlers.GetMyTutorBookings)
	tutorBooking.Post("/:bookingId/accept", handlers.AcceptBooking)
	tutorBooking.Post("/:bookingId/decline", handlers.DeclineBooking)
	tutorBooking.Post("/:bookingId/counter", handlers.CounterProposeBooking)
}
