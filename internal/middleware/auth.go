package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"leadcapture/internal/auth"
	"leadcapture/internal/config"
	puser "leadcapture/internal/platform/user"
)

// AuthMiddleware resolves the bearer token to an active user and stores it
// in Locals("user").
func AuthMiddleware(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)

	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Access token required",
		})
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	claims, err := auth.VerifyJWT(cfg.JWTSecret, token)
	if err != nil {
		return invalidToken(c)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return invalidToken(c)
	}

	user, err := puser.NewService(db).GetUserByID(c.UserContext(), userID)
	if err != nil || !user.IsActive {
		return invalidToken(c)
	}

	c.Locals("user", user)

	return c.Next()
}

func invalidToken(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"message": "Invalid or expired token",
	})
}
