package middleware

import (
	"github.com/gofiber/fiber/v2"

	"leadcapture/internal/database"
)

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*database.User)
	if !ok || user.Role != database.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Admin access required",
		})
	}

	return c.Next()
}
