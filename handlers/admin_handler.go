package handlers

import (
	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateSubjectRequest struct {
	Name          string  `json:"name" validate:"required,min=2"`
	HourlyRateTTD float64 `json:"hourly_rate_ttd" validate:"required,gt=0"`
}

func CreateSubject(c *fiber.Ctx) error {
	var req CreateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	subject := models.Subject{
		Name:          req.Name,
		HourlyRateTTD: req.HourlyRateTTD,
	}
	if err := database.DB.Create(&subject).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A subject with this name already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(subject)
}

type CreateParentLinkRequest struct {
	ParentID       string `json:"parent_id" validate:"required,uuid"`
	StudentID      string `json:"student_id" validate:"required,uuid"`
	DisplayColor   string `json:"display_color"`
	ManagedBilling *bool  `json:"managed_billing"`
}

func CreateParentChildLink(c *fiber.Ctx) error {
	var req CreateParentLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	parentID, _ := uuid.Parse(req.ParentID)
	studentID, _ := uuid.Parse(req.StudentID)

	link := models.ParentChildLink{
		ParentID:       parentID,
		StudentID:      studentID,
		ManagedBilling: true,
	}
	if req.DisplayColor != "" {
		link.DisplayColor = req.DisplayColor
	}
	if req.ManagedBilling != nil {
		link.ManagedBilling = *req.ManagedBilling
	}

	if err := database.DB.Create(&link).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create link"})
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// ListNeedsAttention surfaces sessions whose meeting link failed to
// provision, for operator remediation.
func ListNeedsAttention(c *fiber.Ctx) error {
	sessions, err := services.SessionsNeedingAttention(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch sessions"})
	}
	return c.JSON(sessions)
}

func RetryProvisioning(c *fiber.Ctx) error {
	session, err := loadSession(c)
	if session == nil {
		return err
	}

	go services.ProvisionMeetingLink(database.DB, session.ID)
	return c.JSON(fiber.Map{"message": "Provisioning retry queued."})
}
