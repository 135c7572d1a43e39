package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leadcapture/internal/auth"
	"leadcapture/internal/config"
	"leadcapture/internal/database"
	puser "leadcapture/internal/platform/user"
)

func Register(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	userService := puser.NewService(db)

	type RegisterInput struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}

	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return badRequest(c, "Name, email, and password are required")
	}
	if err := config.Validate.Var(puser.NormalizeEmail(input.Email), "email"); err != nil {
		return badRequest(c, "Please enter a valid email address")
	}
	if len(input.Password) < 6 {
		return badRequest(c, "Password must be at least 6 characters long")
	}

	var phone *string
	if p := strings.TrimSpace(input.Phone); p != "" {
		phone = &p
	}

	// Self-registration never grants elevated roles.
	user, err := userService.Create(c.UserContext(), puser.CreateInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    phone,
		Role:     database.RoleUser,
	})
	if err != nil {
		return fail(c, err, "Registration failed")
	}

	return ok(c, "User registered successfully", fiber.Map{"user": user})
}

func Login(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	logger := c.Locals("logger").(*zap.Logger)

	userService := puser.NewService(db)

	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	user, err := userService.Authenticate(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, puser.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": puser.ErrInvalidCredentials.Message,
			})
		}
		return fail(c, err, "Login failed")
	}

	token, err := auth.GenerateJWT(cfg.JWTSecret, user, cfg.TokenTTL)
	if err != nil {
		return fail(c, err, "Login failed")
	}

	if err := userService.TouchLastLogin(c.UserContext(), user.ID); err != nil {
		logger.Warn("failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return ok(c, "Login successful", fiber.Map{"user": user, "token": token})
}

func VerifyToken(c *fiber.Ctx) error {
	user := c.Locals("user").(*database.User)

	return ok(c, "", fiber.Map{"user": user})
}
