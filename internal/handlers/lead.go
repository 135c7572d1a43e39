package handlers

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/mail"
	"leadcapture/internal/platform/intake"
)

const msgSubmitFailed = "An error occurred while processing your application. Please try again."

// flexibleAmount accepts a JSON number or a numeric string. Anything else
// decodes to NaN so validation reports it as an invalid amount.
type flexibleAmount float64

func (a *flexibleAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = 0
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			*a = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = flexibleAmount(math.NaN())
		return nil
	}
	*a = flexibleAmount(v)
	return nil
}

func SubmitLead(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	db := c.Locals("db").(*gorm.DB)
	logger := c.Locals("logger").(*zap.Logger)
	gateway := c.Locals("crm").(crm.Gateway)
	mailer := c.Locals("mailer").(mail.Mailer)

	type SubmitInput struct {
		LoanAmount flexibleAmount `json:"loanAmount"`
		LoanType   string         `json:"loanType"`
		Name       string         `json:"name"`
		Email      string         `json:"email"`
		Phone      string         `json:"phone"`
		UserID     string         `json:"userId"`
	}

	var input SubmitInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	app := intake.Application{
		LoanAmount: float64(input.LoanAmount),
		LoanType:   input.LoanType,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
	}
	if id := strings.TrimSpace(input.UserID); id != "" {
		callerID, err := uuid.Parse(id)
		if err != nil {
			return badRequest(c, "User not found")
		}
		app.CallerUserID = &callerID
	}

	svc := intake.NewService(db, cfg, gateway, mail.NewNotifier(mailer, cfg), logger)

	result, err := svc.Submit(c.UserContext(), app)
	if err != nil {
		// An unknown caller is a client error on this route.
		return failWithStatus(c, err, msgSubmitFailed, fiber.StatusBadRequest)
	}

	return ok(c, result.Message(), result)
}
