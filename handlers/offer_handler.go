package handlers

import (
	"time"

	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func loadOffer(c *fiber.Ctx) (*models.Offer, error) {
	offerID, err := uuid.Parse(c.Params("offerId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid offer id"})
	}

	var offer models.Offer
	if err := database.DB.First(&offer, "id = ?", offerID).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Offer not found"})
	}
	return &offer, nil
}

type ProposeOfferRequest struct {
	StudentID       string `json:"student_id" validate:"required,uuid"`
	SubjectID       string `json:"subject_id" validate:"required,uuid"`
	StartAt         string `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
	Note            string `json:"note"`
}

func ProposeOffer(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var req ProposeOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	studentID, _ := uuid.Parse(req.StudentID)
	subjectID, _ := uuid.Parse(req.SubjectID)
	startAt, _ := time.Parse(time.RFC3339, req.StartAt)

	var note *string
	if req.Note != "" {
		note = &req.Note
	}

	offer, err := services.ProposeOffer(database.DB, tutorID, studentID, subjectID, startAt, req.DurationMinutes, note)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(offer)
}

func GetMyOffers(c *fiber.Ctx) error {
	userID := currentUserID(c)

	column := "student_id"
	if currentUserRole(c) == models.RoleTutor {
		column = "tutor_id"
	}

	var offers []models.Offer
	if err := database.DB.
		Where(column+" = ?", userID).
		Order("created_at desc").
		Find(&offers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch offers"})
	}
	return c.JSON(offers)
}

type CounterOfferRequest struct {
	NewStartAt         string `json:"new_start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	NewDurationMinutes int    `json:"new_duration_minutes" validate:"required,min=1"`
	Note               string `json:"note"`
}

func CounterOffer(c *fiber.Ctx) error {
	studentID := currentUserID(c)

	offer, err := loadOffer(c)
	if offer == nil {
		return err
	}

	var req CounterOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newStart, _ := time.Parse(time.RFC3339, req.NewStartAt)
	var note *string
	if req.Note != "" {
		note = &req.Note
	}

	countered, err := services.CounterOffer(database.DB, offer, studentID, newStart, req.NewDurationMinutes, note)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(countered)
}

func AcceptOffer(c *fiber.Ctx) error {
	studentID := currentUserID(c)

	offer, err := loadOffer(c)
	if offer == nil {
		return err
	}

	booking, err := services.AcceptOffer(database.DB, offer, studentID)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Offer accepted.",
		"booking": booking,
	})
}

func DeclineOffer(c *fiber.Ctx) error {
	actorID := currentUserID(c)

	offer, err := loadOffer(c)
	if offer == nil {
		return err
	}

	declined, err := services.DeclineOffer(database.DB, offer, actorID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(declined)
}
