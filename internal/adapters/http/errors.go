package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/spotmap/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int               `json:"status"`
	Code      string            `json:"code"`    // bad_request, not_found, internal_error
	Message   string            `json:"message"` // Human-readable message
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errValidation returns a 400 error carrying per-field messages.
func errValidation(c *fiber.Ctx, verr *domain.ValidationError) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusBadRequest).JSON(APIError{
		Status:    fiber.StatusBadRequest,
		Code:      "validation_failed",
		Message:   "invalid input",
		RequestID: reqID,
		Fields:    verr.Fields,
	})
}

// handleError maps a usecase error onto the HTTP error envelope.
// Internal errors are logged and answered with a generic message.
func handleError(c *fiber.Ctx, err error, notFoundMsg string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return errValidation(c, verr)
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, notFoundMsg)
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
		return errInternal(c, "internal server error")
	}
}
