package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"leadcapture/internal/database"
	"leadcapture/internal/platform/account"
	"leadcapture/internal/platform/lead"
)

func GetMyLeads(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(*database.User)

	leads, err := lead.NewService(db).ListByUser(c.UserContext(), user.ID)
	if err != nil {
		return fail(c, err, "Failed to fetch leads")
	}

	return ok(c, "", leads)
}

func GetMyAccounts(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	user := c.Locals("user").(*database.User)

	accounts, err := account.NewService(db).ListByUser(c.UserContext(), user.ID)
	if err != nil {
		return fail(c, err, "Failed to fetch accounts")
	}

	return ok(c, "", accounts)
}
