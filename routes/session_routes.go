package routes

import (
	"github.com/classroomtt/tutor_marketplace/handlers"
	"github.com/classroomtt/tutor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func SessionRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	sessions := api.Group("/sessions", middleware.Protected())
	sessions.Get("/me", handlers.GetMySessions)
	sessions.Post("/:sessionId/join", handlers.JoinSession)

	tutorSessions := api.Group("/tutor/sessions", middleware.Protected(), middleware.TutorRequired())
	tutorSessions.Post("/:sessionId/no-show", handlers.MarkNoShow)
	tutorSessions.Post("/:sessionId/complete", handlers.CompleteSession)
}
