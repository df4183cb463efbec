package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/domain"
)

// ErrorHandler maps domain errors to HTTP status codes. Validation errors are
// the caller's fault, commit conflicts mean the turn was retried away, and
// everything else stays a 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		switch {
		case errors.Is(err, domain.ErrInvalidSessionID),
			errors.Is(err, domain.ErrEmptyUtterance):
			code = fiber.StatusBadRequest
		case errors.Is(err, domain.ErrCommitConflict):
			code = fiber.StatusConflict
		default:
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
