package handlers

import (
	"time"

	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func loadBooking(c *fiber.Ctx) (*models.Booking, error) {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	return &booking, nil
}

type CreateBookingRequest struct {
	TutorID   string `json:"tutor_id" validate:"required,uuid"`
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	StartAt   string `json:"start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt     string `json:"end_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Notes     string `json:"notes"`
}

func CreateBooking(c *fiber.Ctx) error {
	studentID := currentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tutorID, _ := uuid.Parse(req.TutorID)
	subjectID, _ := uuid.Parse(req.SubjectID)
	startAt, _ := time.Parse(time.RFC3339, req.StartAt)
	endAt, _ := time.Parse(time.RFC3339, req.EndAt)

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	booking, err := services.RequestBooking(database.DB, studentID, tutorID, subjectID, startAt, endAt, notes)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func GetMyBookings(c *fiber.Ctx) error {
	studentID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Where("student_id = ?", studentID).
		Order("requested_start_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetMyTutorBookings(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Where("tutor_id = ?", tutorID).
		Order("requested_start_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}

// GetBooking returns one booking with its full message thread, for
// the booking's parties and linked parents only.
func GetBooking(c *fiber.Ctx) error {
	userID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	if userID != booking.StudentID && userID != booking.TutorID {
		linked, err := services.IsLinkedParent(database.DB, userID, booking.StudentID)
		if err != nil || !linked {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This is not your booking"})
		}
	}

	database.DB.
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		First(booking, "id = ?", booking.ID)

	return c.JSON(booking)
}

func AcceptBooking(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	accepted, err := services.TutorAcceptBooking(database.DB, booking, tutorID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(accepted)
}

type DeclineBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func DeclineBooking(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req DeclineBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	declined, err := services.TutorDeclineBooking(database.DB, booking, tutorID, req.Reason)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(declined)
}

type CounterProposeRequest struct {
	NewStartAt string `json:"new_start_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	NewEndAt   string `json:"new_end_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Note       string `json:"note"`
}

func CounterProposeBooking(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

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

	msg, err := services.TutorCounterPropose(database.DB, booking, tutorID, newStart, newEnd, req.Note)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

type AcceptCounterRequest struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
}

func AcceptCounter(c *fiber.Ctx) error {
	studentID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req AcceptCounterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	messageID, _ := uuid.Parse(req.MessageID)

	confirmed, err := services.StudentAcceptCounter(database.DB, booking, studentID, messageID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(confirmed)
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func CancelBooking(c *fiber.Ctx) error {
	actorID := currentUserID(c)
	actorRole := currentUserRole(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req CancelBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cancelled, err := services.CancelBooking(database.DB, booking, actorID, actorRole, req.Reason)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(cancelled)
}

type PostMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

func PostBookingMessage(c *fiber.Ctx) error {
	senderID := currentUserID(c)

	booking, err := loadBooking(c)
	if booking == nil {
		return err
	}

	var req PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	msg, err := services.AddBookingMessage(database.DB, booking, senderID, req.Body)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
