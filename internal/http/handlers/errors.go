package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"resume2pdf/internal/infra/logging"
)

// ErrorHandler renders every error as {"error": message}. Client errors are
// logged at info level; anything else is a server fault.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		logging.Error("Request failed", "path", c.Path(), "status", code, "error", err, "request_id", requestID(c))
	} else {
		logging.Info("Request rejected", "path", c.Path(), "status", code, "message", msg, "request_id", requestID(c))
	}

	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
