package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"leadcapture/internal/database"
	"leadcapture/internal/platform/account"
	"leadcapture/internal/platform/lead"
	"leadcapture/internal/platform/storage"
	puser "leadcapture/internal/platform/user"
)

type queryError struct {
	param string
}

func (e *queryError) Error() string {
	return fmt.Sprintf("Invalid query parameter: %s", e.param)
}

// queryParser collects the first malformed parameter so handlers can check
// once after reading all filters.
type queryParser struct {
	c   *fiber.Ctx
	err *queryError
}

func (q *queryParser) fail(param string) {
	if q.err == nil {
		q.err = &queryError{param: param}
	}
}

func (q *queryParser) uuid(param string) *uuid.UUID {
	raw := q.c.Query(param)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		q.fail(param)
		return nil
	}
	return &id
}

func (q *queryParser) float(param string) *float64 {
	raw := q.c.Query(param)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.fail(param)
		return nil
	}
	return &v
}

func (q *queryParser) int(param string) *int {
	raw := q.c.Query(param)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(param)
		return nil
	}
	return &v
}

func (q *queryParser) bool(param string) *bool {
	raw := q.c.Query(param)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(param)
		return nil
	}
	return &v
}

func queryEnum[T ~string](q *queryParser, param string, parse func(string) (T, error)) *T {
	raw := q.c.Query(param)
	if raw == "" {
		return nil
	}
	v, err := parse(raw)
	if err != nil {
		q.fail(param)
		return nil
	}
	return &v
}

func (q *queryParser) page() (limit, offset int) {
	if v := q.int("limit"); v != nil {
		limit = *v
	}
	if v := q.int("offset"); v != nil {
		offset = *v
	}
	return limit, offset
}

func paramID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

type leadView struct {
	database.Lead
	Account *database.Account `json:"account"`
	User    *database.User    `json:"user"`
}

// attach looks up the accounts and users referenced by leads in two queries
// and pairs them with each lead.
func attach(ctx context.Context, db *gorm.DB, leads []database.Lead) ([]leadView, error) {
	accountIDs := make([]uuid.UUID, 0, len(leads))
	userIDs := make([]uuid.UUID, 0, len(leads))
	for _, l := range leads {
		accountIDs = append(accountIDs, l.AccountID)
		userIDs = append(userIDs, l.UserID)
	}

	accounts, err := account.NewService(db).GetByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	users, err := puser.NewService(db).GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]leadView, 0, len(leads))
	for _, l := range leads {
		v := leadView{Lead: l}
		if a, ok := accounts[l.AccountID]; ok {
			v.Account = &a
		}
		if u, ok := users[l.UserID]; ok {
			v.User = &u
		}
		views = append(views, v)
	}
	return views, nil
}

func ListUsers(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	q := &queryParser{c: c}
	filter := puser.ListFilter{
		Role:     queryEnum(q, "role", database.ParseRole),
		IsActive: q.bool("isActive"),
	}
	filter.Limit, filter.Offset = q.page()
	if q.err != nil {
		return badRequest(c, q.err.Error())
	}

	users, err := puser.NewService(db).List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err, "Failed to fetch users")
	}

	return ok(c, "", users)
}

func GetUser(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, valid := paramID(c)
	if !valid {
		return fail(c, puser.ErrNotFound, "")
	}

	user, err := puser.NewService(db).GetUserByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to fetch user")
	}

	return ok(c, "", user)
}

func DeactivateUser(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	current := c.Locals("user").(*database.User)

	id, valid := paramID(c)
	if !valid {
		return fail(c, puser.ErrNotFound, "")
	}
	if id == current.ID {
		return badRequest(c, "You cannot deactivate your own account")
	}

	user, err := puser.NewService(db).Deactivate(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to deactivate user")
	}

	return ok(c, "User deactivated", user)
}

func ListAccounts(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	q := &queryParser{c: c}
	filter := account.ListFilter{
		UserID:             q.uuid("userId"),
		Status:             queryEnum(q, "status", database.ParseAccountStatus),
		AccountType:        queryEnum(q, "accountType", database.ParseAccountType),
		VerificationStatus: queryEnum(q, "verificationStatus", database.ParseVerificationStatus),
	}
	filter.Limit, filter.Offset = q.page()
	if q.err != nil {
		return badRequest(c, q.err.Error())
	}

	accounts, err := account.NewService(db).List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err, "Failed to fetch accounts")
	}

	return ok(c, "", accounts)
}

func GetAccount(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, valid := paramID(c)
	if !valid {
		return fail(c, account.ErrNotFound, "")
	}

	a, err := account.NewService(db).GetByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to fetch account")
	}

	return ok(c, "", a)
}

func UpdateAccount(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, valid := paramID(c)
	if !valid {
		return fail(c, account.ErrNotFound, "")
	}

	var input account.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	a, err := account.NewService(db).Update(c.UserContext(), id, input)
	if err != nil {
		return fail(c, err, "Failed to update account")
	}

	return ok(c, "Account updated", a)
}

func ListLeads(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	q := &queryParser{c: c}
	filter := lead.ListFilter{
		UserID:     q.uuid("userId"),
		AccountID:  q.uuid("accountId"),
		Status:     queryEnum(q, "status", database.ParseLeadStatus),
		LoanType:   queryEnum(q, "loanType", database.ParseLoanType),
		MinAmount:  q.float("minAmount"),
		MaxAmount:  q.float("maxAmount"),
		MinScore:   q.int("minScore"),
		MaxScore:   q.int("maxScore"),
		AssignedTo: q.uuid("assignedTo"),
	}
	filter.Limit, filter.Offset = q.page()
	if q.err != nil {
		return badRequest(c, q.err.Error())
	}

	leads, err := lead.NewService(db).List(c.UserContext(), filter)
	if err != nil {
		return fail(c, err, "Failed to fetch leads")
	}

	views, err := attach(c.UserContext(), db, leads)
	if err != nil {
		return fail(c, err, "Failed to fetch leads")
	}

	return ok(c, "", views)
}

func GetLead(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, valid := paramID(c)
	if !valid {
		return fail(c, lead.ErrNotFound, "")
	}

	l, err := lead.NewService(db).GetByID(c.UserContext(), id)
	if err != nil {
		return fail(c, err, "Failed to fetch lead")
	}

	views, err := attach(c.UserContext(), db, []database.Lead{*l})
	if err != nil {
		return fail(c, err, "Failed to fetch lead")
	}

	return ok(c, "", views[0])
}

func UpdateLead(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	id, valid := paramID(c)
	if !valid {
		return fail(c, lead.ErrNotFound, "")
	}

	var input lead.UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	l, err := lead.NewService(db).Update(c.UserContext(), id, input)
	if err != nil {
		return fail(c, err, "Failed to update lead")
	}

	return ok(c, "Lead updated", l)
}

func AddLeadNote(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)
	current := c.Locals("user").(*database.User)

	id, valid := paramID(c)
	if !valid {
		return fail(c, lead.ErrNotFound, "")
	}

	type NoteInput struct {
		Note string `json:"note"`
	}

	var input NoteInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	note, err := lead.NewService(db).AddNote(c.UserContext(), id, input.Note, &current.ID)
	if err != nil {
		return fail(c, err, "Failed to add note")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": note})
}

func UploadLeadDocument(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	storageService, configured := c.Locals("storage").(storage.StorageService)
	if !configured || storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "Document storage is not configured",
		})
	}

	id, valid := paramID(c)
	if !valid {
		return fail(c, lead.ErrNotFound, "")
	}

	leadService := lead.NewService(db)
	if _, err := leadService.GetByID(c.UserContext(), id); err != nil {
		return fail(c, err, "Failed to upload document")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "A file is required")
	}
	if !storageService.IsFileExtensionAllowed(file.Filename) {
		return badRequest(c, "File type not allowed")
	}

	key := storageService.GenerateKeyName(file.Filename)
	if err := storageService.SaveFile(file, key, c); err != nil {
		return fail(c, err, "Failed to upload document")
	}

	doc, err := leadService.AddDocument(c.UserContext(), id, file.Filename, storageService.URL(key))
	if err != nil {
		return fail(c, err, "Failed to upload document")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": doc})
}

func GetStats(c *fiber.Ctx) error {
	db := c.Locals("db").(*gorm.DB)

	var (
		stats         *lead.Stats
		totalUsers    int64
		totalAccounts int64
	)

	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() (err error) {
		stats, err = lead.NewService(db).Stats(ctx)
		return err
	})
	g.Go(func() (err error) {
		totalUsers, err = puser.NewService(db).Count(ctx, puser.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		totalAccounts, err = account.NewService(db).Count(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(c, err, "Failed to fetch statistics")
	}

	return ok(c, "", fiber.Map{
		"totalLeads":      stats.TotalLeads,
		"avgLoanAmount":   stats.AvgLoanAmount,
		"statusBreakdown": stats.StatusBreakdown,
		"totalUsers":      totalUsers,
		"totalAccounts":   totalAccounts,
	})
}
