package routes

import (
	"github.com/classroomtt/tutor_marketplace/handlers"
	"github.com/classroomtt/tutor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func OfferRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	offers := api.Group("/offers", middleware.Protected())
	offers.Get("/me", handlers.GetMyOffers)
	offers.Post("", middleware.TutorRequired(), handlers.ProposeOffer)
	offers.Post("/:offerId/counter", middleware.StudentRequired(), handlers.CounterOffer)
	offers.Post("/:offerId/accept", middleware.StudentRequired(), handlers.AcceptOffer)
	offers.Post("/:offerId/decline", handlers.DeclineOffer)
}
