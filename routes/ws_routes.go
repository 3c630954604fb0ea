package routes

import (
	"github.com/classroomtt/tutor_marketplace/handlers"
	"github.com/classroomtt/tutor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func WebsocketRoutes(app *fiber.App) {
	app.Use("/ws", handlers.WebsocketUpgrade)
	app.Get("/ws", middleware.Protected(), handlers.WebsocketHandler())
}
