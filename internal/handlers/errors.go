package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service sentinels to HTTP statuses.
var statusFor = []struct {
	err    error
	status int
}{
	{services.ErrValidation, fiber.StatusUnprocessableEntity},
	{services.ErrProjectNotFound, fiber.StatusNotFound},
	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrUpdateForbidden, fiber.StatusForbidden},
	{services.ErrDeleteForbidden, fiber.StatusForbidden},
	{services.ErrProjectNotUpdated, fiber.StatusBadRequest},
	{services.ErrStatusNotUpdated, fiber.StatusBadRequest},
	{services.ErrCommentNotAdded, fiber.StatusBadRequest},
	{services.ErrProjectNotDeleted, fiber.StatusBadRequest},
	{services.ErrProfileNotUpdated, fiber.StatusBadRequest},
	{services.ErrImageNotUpdated, fiber.StatusBadRequest},
	{services.ErrEmailTaken, fiber.StatusBadRequest},
	{services.ErrInactiveUser, fiber.StatusBadRequest},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrUploadsDisabled, fiber.StatusServiceUnavailable},
	{services.ErrUnsupportedUpload, fiber.StatusUnsupportedMediaType},
}

func writeError(c *fiber.Ctx, err error) error {
	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
	}

	slog.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"error", err.Error(),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: "Invalid request body",
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
