// Package intake turns a loan application into a user, an account and a
// lead, forwards the lead to the CRM and mails credentials to first-time
// applicants.
package intake

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leadcapture/internal/apperr"
	"leadcapture/internal/config"
	"leadcapture/internal/crm"
	"leadcapture/internal/database"
	"leadcapture/internal/mail"
	"leadcapture/internal/metrics"
	"leadcapture/internal/platform/account"
	"leadcapture/internal/platform/lead"
	"leadcapture/internal/platform/user"
	"leadcapture/pkg/utils"
)

const (
	msgFieldsRequired = "All fields are required"
	msgInvalidEmail   = "Invalid email format"
	msgInvalidAmount  = "Invalid loan amount"
	msgAmountBounds   = "Loan amount must be between $1,000 and $10,000,000"
	msgInvalidType    = "Invalid loan type"
	msgCRMFailed      = "Failed to submit lead to CRM"

	MessageFirstTime = "Application submitted! Check your email for login credentials."
	MessageReturning = "Lead submitted successfully"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*database.User, error)
	GetUserByEmail(ctx context.Context, email string) (*database.User, error)
	Create(ctx context.Context, in user.CreateInput) (*database.User, error)
}

type AccountStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]database.Account, error)
	Create(ctx context.Context, in account.CreateInput) (*database.Account, error)
	Update(ctx context.Context, id uuid.UUID, in account.UpdateInput) (*database.Account, error)
}

type LeadStore interface {
	Create(ctx context.Context, in lead.CreateInput) (*database.Lead, error)
	Update(ctx context.Context, id uuid.UUID, in lead.UpdateInput) (*database.Lead, error)
}

type Notifier interface {
	SendCredentials(ctx context.Context, c mail.Credentials) error
}

type Application struct {
	LoanAmount   float64
	LoanType     string
	Name         string
	Email        string
	Phone        string
	CallerUserID *uuid.UUID
}

type Result struct {
	LeadID                  string    `json:"leadId"`
	AccountID               uuid.UUID `json:"accountId"`
	UserID                  uuid.UUID `json:"userId"`
	IsFirstTimeUser         bool      `json:"isFirstTimeUser"`
	NextStepURL             string    `json:"nextStepUrl"`
	EstimatedProcessingTime string    `json:"estimatedProcessingTime"`
}

func (r *Result) Message() string {
	if r.IsFirstTimeUser {
		return MessageFirstTime
	}
	return MessageReturning
}

type Service struct {
	users    UserStore
	accounts AccountStore
	leads    LeadStore
	gateway  crm.Gateway
	notifier Notifier
	cfg      *config.Config
	logger   *zap.Logger

	generatePassword func(length int) string
}

// NewService creates an intake service backed by the GORM stores.
func NewService(db *gorm.DB, cfg *config.Config, gateway crm.Gateway, notifier Notifier, logger *zap.Logger) *Service {
	return NewServiceWithStores(user.NewService(db), account.NewService(db), lead.NewService(db), gateway, notifier, cfg, logger)
}

func NewServiceWithStores(users UserStore, accounts AccountStore, leads LeadStore, gateway crm.Gateway, notifier Notifier, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		users:            users,
		accounts:         accounts,
		leads:            leads,
		gateway:          gateway,
		notifier:         notifier,
		cfg:              cfg,
		logger:           logger,
		generatePassword: utils.GeneratePassword,
	}
}

type normalized struct {
	amount   float64
	loanType database.LoanType
	name     string
	email    string
	phone    string
}

func validate(app Application) (*normalized, error) {
	n := normalized{
		amount: app.LoanAmount,
		name:   strings.TrimSpace(app.Name),
		email:  user.NormalizeEmail(app.Email),
		phone:  strings.TrimSpace(app.Phone),
	}
	rawType := strings.TrimSpace(app.LoanType)

	required := map[string]string{}
	if n.amount == 0 {
		required["loanAmount"] = "Loan amount is required"
	}
	if rawType == "" {
		required["loanType"] = "Loan type is required"
	}
	if n.name == "" {
		required["name"] = "Name is required"
	}
	if n.email == "" {
		required["email"] = "Email is required"
	}
	if n.phone == "" {
		required["phone"] = "Phone is required"
	}
	if len(required) > 0 {
		return nil, apperr.Validation(msgFieldsRequired, required)
	}

	if err := config.Validate.Var(n.email, "email"); err != nil {
		return nil, apperr.Validation(msgInvalidEmail, map[string]string{"email": "Please enter a valid email address"})
	}

	if math.IsNaN(n.amount) || math.IsInf(n.amount, 0) || n.amount <= 0 {
		return nil, apperr.Validation(msgInvalidAmount, map[string]string{"loanAmount": "Please enter a valid loan amount"})
	}
	if !lead.ValidAmount(n.amount) {
		return nil, apperr.Validation(msgAmountBounds, map[string]string{"loanAmount": msgAmountBounds})
	}

	lt, err := database.ParseLoanType(rawType)
	if err != nil {
		return nil, apperr.Validation(msgInvalidType, map[string]string{"loanType": "Loan type must be Personal, Business or Mortgage"})
	}
	n.loanType = lt

	return &n, nil
}

// Submit runs the intake flow. Validation happens before any write. Once the
// lead is persisted nothing is rolled back: a CRM failure is reported as an
// upstream error after first-time credentials have been sent, while a failed
// notification or a failed write of the CRM id is only logged.
func (s *Service) Submit(ctx context.Context, app Application) (*Result, error) {
	in, err := validate(app)
	if err != nil {
		return nil, err
	}

	u, password, err := s.resolveUser(ctx, app.CallerUserID, in)
	if err != nil {
		return nil, err
	}
	firstTime := password != ""

	acct, err := s.reconcileAccount(ctx, u.ID, in)
	if err != nil {
		return nil, err
	}

	l, err := s.leads.Create(ctx, lead.CreateInput{
		AccountID:  acct.ID,
		UserID:     u.ID,
		LoanAmount: in.amount,
		LoanType:   in.loanType,
		Status:     database.LeadNew,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordLeadSubmitted(string(in.loanType), firstTime)

	crmID, crmErr := s.forward(ctx, l, in)

	if crmErr == nil {
		// The CRM already holds the lead; a failed write is only logged.
		if _, err := s.leads.Update(ctx, l.ID, lead.UpdateInput{SalesforceID: &crmID}); err != nil {
			s.logger.Warn("failed to store crm id",
				zap.String("lead_id", l.ID.String()),
				zap.String("crm_id", crmID),
				zap.Error(err),
			)
		}
	}

	if firstTime {
		s.notify(ctx, u, l, password)
	}

	if crmErr != nil {
		return nil, apperr.Upstream(msgCRMFailed, crmErr)
	}

	return &Result{
		LeadID:                  crmID,
		AccountID:               acct.ID,
		UserID:                  u.ID,
		IsFirstTimeUser:         firstTime,
		NextStepURL:             s.cfg.NextStepURL,
		EstimatedProcessingTime: s.cfg.EstimatedProcessingTime,
	}, nil
}

// resolveUser returns the applicant and, for a newly created user, the
// generated plaintext password. A caller id must belong to the submitted
// email, otherwise the user is reported as not found.
func (s *Service) resolveUser(ctx context.Context, callerID *uuid.UUID, in *normalized) (*database.User, string, error) {
	if callerID != nil {
		u, err := s.users.GetUserByID(ctx, *callerID)
		if err != nil {
			return nil, "", err
		}
		// The id arrives unauthenticated; it only names the applicant when it
		// belongs to the submitted email.
		if user.NormalizeEmail(u.Email) != in.email {
			s.logger.Warn("caller id does not match applicant email", zap.String("user_id", u.ID.String()))
			return nil, "", user.ErrNotFound
		}
		return u, "", nil
	}

	u, err := s.users.GetUserByEmail(ctx, in.email)
	if err == nil {
		return u, "", nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, "", err
	}

	password := s.generatePassword(s.cfg.GeneratedPasswordLength)
	phone := in.phone

	u, err = s.users.Create(ctx, user.CreateInput{
		Name:     in.name,
		Email:    in.email,
		Password: password,
		Phone:    &phone,
		Role:     database.RoleUser,
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("first-time applicant registered", zap.String("user_id", u.ID.String()))

	return u, password, nil
}

func (s *Service) reconcileAccount(ctx context.Context, userID uuid.UUID, in *normalized) (*database.Account, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return s.accounts.Create(ctx, account.CreateInput{
			UserID: userID,
			Name:   in.name,
			Email:  in.email,
			Phone:  in.phone,
		})
	}

	current := accounts[0]

	var changes account.UpdateInput
	if current.Name != in.name {
		changes.Name = &in.name
	}
	if current.Email != in.email {
		changes.Email = &in.email
	}
	if current.Phone != in.phone {
		changes.Phone = &in.phone
	}
	if changes.Empty() {
		return &current, nil
	}

	return s.accounts.Update(ctx, current.ID, changes)
}

func (s *Service) forward(ctx context.Context, l *database.Lead, in *normalized) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CRMTimeout)
	defer cancel()

	start := time.Now()
	sub, err := s.gateway.SubmitLead(ctx, crm.NewLeadPayload(crm.Applicant{
		Name:       in.name,
		Email:      in.email,
		Phone:      in.phone,
		LoanAmount: l.LoanAmount,
		LoanType:   string(l.LoanType),
		LeadScore:  l.LeadScore,
	}))
	metrics.RecordCRMRequest(err, time.Since(start))
	if err != nil {
		s.logger.Error("crm submission failed", zap.String("lead_id", l.ID.String()), zap.Error(err))
		return "", err
	}

	return sub.ID, nil
}

func (s *Service) notify(ctx context.Context, u *database.User, l *database.Lead, password string) {
	err := s.notifier.SendCredentials(ctx, mail.Credentials{
		Name:       u.Name,
		Email:      u.Email,
		Password:   password,
		LeadID:     l.ID,
		LoanAmount: l.LoanAmount,
		LoanType:   string(l.LoanType),
	})
	if err != nil {
		metrics.RecordNotificationFailure()
		s.logger.Warn("failed to send credentials email", zap.String("user_id", u.ID.String()), zap.Error(err))
	}
}
