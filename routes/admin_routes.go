package routes

import (
	"github.com/classroomtt/tutor_marketplace/handlers"
	"github.com/classroomtt/tutor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Post("/subjects", handlers.CreateSubject)
	admin.Post("/parent-links", handlers.CreateParentChildLink)
	admin.Get("/sessions/needs-attention", handlers.ListNeedsAttention)
	admin.Post("/sessions/:sessionId/retry-provisioning", handlers.RetryProvisioning)
}
