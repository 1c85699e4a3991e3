package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/models"
)

// respondError maps domain errors to HTTP statuses. Unknown errors are logged and hidden.
func respondError(c *fiber.Ctx, log *lib.Logger, err error) error {
	var insufficient *models.InsufficientProgressError
	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message":   err.Error(),
			"progress":  insufficient.Progress,
			"threshold": insufficient.Threshold,
		})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse(err.Error()))
	case errors.Is(err, models.ErrInvalidRange), errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse(err.Error()))
	case errors.Is(err, models.ErrAlreadyCompleted), errors.Is(err, models.ErrTerminalStage), errors.Is(err, models.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(lib.MessageResponse(err.Error()))
	}
	log.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse(msg))
}
