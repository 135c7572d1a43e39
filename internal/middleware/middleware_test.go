package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"leadcapture/internal/auth"
	"leadcapture/internal/config"
	"leadcapture/internal/database"
	"leadcapture/internal/database/databasetest"
	puser "leadcapture/internal/platform/user"
)

func TestRequestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/broken", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusInternalServerError) })

	testCases := []struct {
		path   string
		status int
		level  zapcore.Level
	}{
		{"/ok", 200, zapcore.InfoLevel},
		{"/missing", 404, zapcore.WarnLevel},
		{"/broken", 500, zapcore.ErrorLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tc.level, entries[0].Level)
			assert.Equal(t, tc.path, entries[0].ContextMap()["path"])
			assert.EqualValues(t, tc.status, entries[0].ContextMap()["status"])
		})
	}
}

func TestRobotsMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RobotsMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("home") })

	resp, err := app.Test(httptest.NewRequest("GET", "/robots.txt", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "User-agent: *\nDisallow: /\n", string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "home", string(body))
}

func TestAdminMiddleware(t *testing.T) {
	testCases := []struct {
		name   string
		user   *database.User
		status int
	}{
		{"no user", nil, fiber.StatusForbidden},
		{"regular user", &database.User{Role: database.RoleUser}, fiber.StatusForbidden},
		{"admin", &database.User{Role: database.RoleAdmin}, fiber.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.user != nil {
					c.Locals("user", tc.user)
				}
				return c.Next()
			})
			app.Get("/", AdminMiddleware, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareLocals(t *testing.T) {
	db := databasetest.New(t)
	cfg := &config.Config{JWTSecret: "0123456789abcdef0123456789abcdef"}

	u, err := puser.NewService(db).Create(context.Background(), puser.CreateInput{Name: "Jane Doe", Email: "jane@example.com", Password: "secret1"})
	require.NoError(t, err)
	token, err := auth.GenerateJWT(cfg.JWTSecret, u, time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("db", db)
		return c.Next()
	})
	app.Get("/", AuthMiddleware, func(c *fiber.Ctx) error {
		current, ok := c.Locals("user").(*database.User)
		if !ok || current.ID != u.ID {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		if c.Locals("claims") != nil {
			return c.SendStatus(fiber.StatusConflict)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
