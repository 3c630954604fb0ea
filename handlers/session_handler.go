package handlers

import (
	"github.com/classroomtt/tutor_marketplace/database"
	"github.com/classroomtt/tutor_marketplace/models"
	"github.com/classroomtt/tutor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func loadSession(c *fiber.Ctx) (*models.Session, error) {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var session models.Session
	if err := database.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	return &session, nil
}

func GetMySessions(c *fiber.Ctx) error {
	userID := currentUserID(c)

	column := "student_id"
	if currentUserRole(c) == models.RoleTutor {
		column = "tutor_id"
	}

	var sessions []models.Session
	database.DB.
		Where(column+" = ?", userID).
		Order("scheduled_start_at desc").
		Find(&sessions)

	return c.JSON(sessions)
}

// JoinSession records the caller's join and hands back the meeting
// link, which may still be provisioning.
func JoinSession(c *fiber.Ctx) error {
	userID := currentUserID(c)

	session, err := loadSession(c)
	if session == nil {
		return err
	}

	joined, err := services.RecordJoin(database.DB, session, userID)
	if err != nil {
		return domainError(c, err)
	}

	if joined.JoinURL == nil {
		return c.JSON(fiber.Map{
			"session": joined,
			"message": "The meeting link is still being prepared; try again shortly.",
		})
	}
	return c.JSON(fiber.Map{"session": joined, "join_url": *joined.JoinURL})
}

func MarkNoShow(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	session, err := loadSession(c)
	if session == nil {
		return err
	}

	settled, err := services.MarkStudentNoShow(database.DB, session, tutorID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(settled)
}

func CompleteSession(c *fiber.Ctx) error {
	tutorID := currentUserID(c)

	session, err := loadSession(c)
	if session == nil {
		return err
	}

	settled, err := services.CompleteSession(database.DB, session, tutorID, models.ActorTutor)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(settled)
}
