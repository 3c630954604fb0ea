package routes

import (
	"github.com/classroomtt/tutor_marketplace/handlers"
	"github.com/classroomtt/tutor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func ParentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	parent := api.Group("/parent", middleware.Protected(), middleware.ParentRequired())
	parent.Get("/children", handlers.GetMyChildren)
	parent.Get("/approvals", handlers.GetPendingApprovals)
	parent.Post("/bookings/:bookingId/approve", handlers.ApproveBooking)
	parent.Post("/bookings/:bookingId/reject", handlers.RejectBooking)
	parent.Post("/bookings/:bookingId/suggest-time", handlers.SuggestAlternateTime)
}
