package handlers

import (
	"time"

	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func GetMyChildren(c *fiber.Ctx) error {
	parentID := currentUserID(c)

	var links []models.ParentChildLink
	if err := database.DB.
		Preload("Student").
		Where("parent_id = ?", parentID).
		Find(&links).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch linked students"})
	}
	return c.JSON(links)
}

// GetPendingApprovals lists bookings waiting on this parent.
func GetPendingApprovals(c *fiber.Ctx) error {
	parentID := currentUserID(c)

	var studentIDs []uuid.UUID
	if err := database.DB.Model(&models.ParentChildLink{}).
		Where("parent_id = ?", parentID).
		Pluck("student_id", &studentIDs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch linked students"})
	}
	if len(studentIDs) == 0 {
		return c.JSON([]models.Booking{})
	}

	var bookings []models.Booking
	if err := database.DB.
		Where("student_id IN ? AND status = ?", studentIDs, models.BookingPendingParentApproval).
		Order("requested_start_at asc").
		Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch pending approvals"})
	}
	return c.JSON(bookings)
}

type ParentApproveRequest struct {
	Notes string `json:"notes"`
}

func ApproveBooking(c *fiber.Ctx) error {
	parentID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req ParentApproveRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	approved, err := services.ParentApprove(database.DB, booking, parentID, req.Notes)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Booking approved. Proceed to checkout to complete payment.",
		"booking": approved,
	})
}

type ParentRejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func RejectBooking(c *fiber.Ctx) error {
	parentID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req ParentRejectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rejected, err := services.ParentReject(database.DB, booking, parentID, req.Reason)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(rejected)
}

func SuggestAlternateTime(c *fiber.Ctx) error {
	parentID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req CounterProposeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newStart, _ := time.Parse(time.RFC3339, req.NewStartAt)
	newEnd, _ := time.Parse(time.RFC3339, req.NewEndAt)

	msg, err := services.ParentSuggestAlternateTime(database.DB, booking, parentID, newStart, newEnd, req.Note)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
