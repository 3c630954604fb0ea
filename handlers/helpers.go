package handlers

import (
	"errors"

	"github.com/classroomtt/tutor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	return userID
}

func currentUserRole(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	role, _ := claims["role"].(string)
	return role
}

// domainError maps the service error taxonomy onto HTTP statuses. A
// stale-state loser gets 409 and is expected to re-read and retry;
// everything else needs a different action, not a retry.
func domainError(c *fiber.Ctx, err error) error {
	var (
		stale        *services.StaleStateError
		settled      *services.AlreadySettledError
		invalidState *services.InvalidStateError
		unauthorized *services.UnauthorizedError
		badWindow    *services.InvalidTimeWindowError
		tooEarly     *services.TooEarlyError
	)

	switch {
	case errors.As(err, &stale), errors.As(err, &settled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &unauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &badWindow), errors.As(err, &tooEarly):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &invalidState):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
