package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/mail"
	"leadcapture/internal/metrics"
	"leadcapture/internal/middleware"
	"leadcapture/internal/platform/storage"
)

// Dependencies are shared by every request. Storage may be nil when document
// uploads are not configured.
type Dependencies struct {
	Config  *config.Config
	DB      *gorm.DB
	Logger  *zap.Logger
	CRM     crm.Gateway
	Mailer  mail.Mailer
	Storage storage.StorageService
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
}

// New builds the HTTP application with all routes mounted.
func New(deps Dependencies) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		AppName:      "leadcapture",
		ErrorHandler: errorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(deps.Logger))
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(middleware.RobotsMiddleware())

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("db", deps.DB)
		c.Locals("logger", deps.Logger)
		c.Locals("crm", deps.CRM)
		c.Locals("mailer", deps.Mailer)
		if deps.Storage != nil {
			c.Locals("storage", deps.Storage)
		}
		return c.Next()
	})

	app.Get("/health", Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")
	api.Post("/register", Register)
	api.Post("/login", Login)
	api.Get("/verify-token", middleware.AuthMiddleware, VerifyToken)

	submit := []fiber.Handler{}
	if cfg.SubmitRateLimit > 0 {
		submit = append(submit, limiter.New(limiter.Config{
			Max:        cfg.SubmitRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"success": false,
					"message": "Too many applications, please try again later",
				})
			},
		}))
	}
	api.Post("/submit-lead", append(submit, SubmitLead)...)

	me := api.Group("/me", middleware.AuthMiddleware)
	me.Get("/leads", GetMyLeads)
	me.Get("/accounts", GetMyAccounts)

	admin := api.Group("/admin", middleware.AuthMiddleware, middleware.AdminMiddleware)
	admin.Get("/stats", GetStats)

	admin.Get("/users", ListUsers)
	admin.Get("/users/:id", GetUser)
	admin.Post("/users/:id/deactivate", DeactivateUser)

	admin.Get("/accounts", ListAccounts)
	admin.Get("/accounts/:id", GetAccount)
	admin.Patch("/accounts/:id", UpdateAccount)

	admin.Get("/leads", ListLeads)
	admin.Get("/leads/:id", GetLead)
	admin.Patch("/leads/:id", UpdateLead)
	admin.Post("/leads/:id/notes", AddLeadNote)
	admin.Post("/leads/:id/documents", UploadLeadDocument)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})

	return app
}
