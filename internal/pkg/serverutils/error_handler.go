package serverutils

import (
	"errors"

	"freightchat/pkg/shipping"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps a command error to its HTTP status and user-facing message.
func StatusFor(err error) (int, string) {
	var validationErr *ValidationError
	var opErr *shipping.OperationError
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, validationErr.Error()
	case errors.Is(err, shipping.ErrSessionRequired):
		return fiber.StatusUnauthorized, "Please sign in first"
	case errors.Is(err, shipping.ErrThreadRequired):
		return fiber.StatusConflict, "Start a shipping conversation first"
	case errors.Is(err, shipping.ErrLaneBusy):
		return fiber.StatusConflict, "Another request is still in progress"
	case errors.Is(err, shipping.ErrUserIDRequired):
		return fiber.StatusBadRequest, "User ID is required"
	case errors.As(err, &opErr):
		return fiber.StatusBadGateway, opErr.Notice
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// ErrorHandlerMiddleware renders every returned error in the response envelope.
func ErrorHandlerMiddleware(ctx *fiber.Ctx, err error) error {
	code, message := StatusFor(err)
	return ctx.Status(code).JSON(ErrorResponse(code, message))
}
