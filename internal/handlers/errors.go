package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	apperrors "fundapp/internal/errors"
	"fundapp/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrAlreadyExists),
		errors.Is(err, apperrors.ErrInvalidAmount):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidOperation),
		errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func respondError(c *fiber.Ctx, err error) error {
	de, ok := apperrors.As(err)
	if !ok {
		slog.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return utils.InternalError(c, "internal server error")
	}
	status := statusFor(de)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "code", de.Code, "error", err)
	}
	if apperrors.IsRetryable(de) {
		return utils.Respond(c, status, fiber.Map{"error": de.Message, "code": de.Code, "retryable": true})
	}
	return utils.Error(c, status, de.Code, de.Message)
}

func paramID(c *fiber.Ctx, name string) (uint64, error) {
	return strconv.ParseUint(c.Params(name), 10, 64)
}
