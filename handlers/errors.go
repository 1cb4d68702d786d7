package handlers

import (
	"errors"

	"github.com/anjiri1684/medical_consult/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func statusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrInvalidSignature):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, models.ErrGateway):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as
// {"status":"error","code":N,"message":...}. Internal errors are logged and
// their detail withheld from the client.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.String("method", c.Method()), zap.Error(err))
			message = "Internal server error"
		} else {
			log.Debug("request rejected", zap.String("path", c.Path()), zap.Int("code", code), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{
			"status":  "error",
			"code":    code,
			"message": message,
		})
	}
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	return nil
}
