package middleware

import "github.com/gofiber/fiber/v2"

const robotsDisallowAll = "User-agent: *\nDisallow: /\n"

// RobotsMiddleware keeps crawlers away from the API.
func RobotsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/robots.txt" {
			c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
			c.Type("txt")
			return c.SendString(robotsDisallowAll)
		}
		return c.Next()
	}
}
