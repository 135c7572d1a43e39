package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"leadcapture/internal/apperr"
	"leadcapture/internal/config"
)

const msgInternal = "Internal server error"

func ok(c *fiber.Ctx, message string, data any) error {
	body := fiber.Map{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(body)
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindAuth:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": message})
}

// fail writes err as a JSON error response. Errors without a kind are logged
// and answered with fallback; their text only reaches the client in
// development.
func fail(c *fiber.Ctx, err error, fallback string) error {
	return failWithStatus(c, err, fallback, 0)
}

// failWithStatus is fail with the status of not-found errors overridden.
func failWithStatus(c *fiber.Ctx, err error, fallback string, notFoundStatus int) error {
	cfg := c.Locals("config").(*config.Config)
	logger := c.Locals("logger").(*zap.Logger)

	e := apperr.As(err)
	if e == nil || e.Kind == apperr.KindUnexpected {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))

		if fallback == "" {
			fallback = msgInternal
		}
		body := fiber.Map{"success": false, "message": fallback}
		if cfg.IsDevelopment() {
			body["error"] = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	status := statusOf(e.Kind)
	if e.Kind == apperr.KindNotFound && notFoundStatus != 0 {
		status = notFoundStatus
	}

	body := fiber.Map{"success": false, "message": e.Message}
	if len(e.Fields) > 0 {
		body["errors"] = e.Fields
	}
	if e.Kind == apperr.KindUpstream {
		logger.Warn("upstream failure", zap.String("path", c.Path()), zap.Error(err))
		if cfg.IsDevelopment() {
			body["error"] = err.Error()
		}
	}
	return c.Status(status).JSON(body)
}
