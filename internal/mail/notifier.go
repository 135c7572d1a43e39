package mail

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"leadcapture/internal/config"
)

const credentialsSubject = "Welcome! Your Loan Application & Account Details"

type Credentials struct {
	Name       string
	Email      string
	Password   string
	LeadID     uuid.UUID
	LoanAmount float64
	LoanType   string
}

type Notifier struct {
	mailer Mailer
	cfg    *config.Config
}

func NewNotifier(mailer Mailer, cfg *config.Config) *Notifier {
	return &Notifier{mailer: mailer, cfg: cfg}
}

// New picks Mailgun when it is configured and falls back to the log.
func New(cfg *config.Config, logger *zap.Logger) Mailer {
	if cfg.MailgunEnabled() {
		return NewMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunAPIBase)
	}
	return NewLogMailer(logger)
}

const credentialsBody = `Hello %s,

Thank you for your %s loan application of $%s. Your reference number is %s.

An account has been created for you:

  Email:    %s
  Password: %s

Sign in at %s to follow your application. Please change your password after your first login.
`

// SendCredentials mails a first-time applicant the password generated for
// their new account. Without a configured template the message is sent as
// plain text.
func (n *Notifier) SendCredentials(ctx context.Context, c Credentials) error {
	e := &Email{
		From:    n.cfg.Sender(),
		To:      []string{c.Email},
		Subject: credentialsSubject,
	}

	var err error
	if n.cfg.CredentialsTemplate == "" {
		e.Body = fmt.Sprintf(credentialsBody, c.Name, c.LoanType, FormatAmount(c.LoanAmount),
			c.LeadID, c.Email, c.Password, n.cfg.FrontendURL)
		err = n.mailer.SendMail(ctx, e)
	} else {
		e.Template = n.cfg.CredentialsTemplate
		e.TemplateVars = map[string]any{
			"name":       c.Name,
			"email":      c.Email,
			"password":   c.Password,
			"leadId":     c.LeadID.String(),
			"loanAmount": FormatAmount(c.LoanAmount),
			"loanType":   c.LoanType,
			"loginUrl":   n.cfg.FrontendURL,
		}
		err = n.mailer.SendTemplatedMail(ctx, e)
	}
	if err != nil {
		return fmt.Errorf("failed to send credentials to %s: %w", c.Email, err)
	}
	return nil
}

// FormatAmount renders an amount with thousands separators, e.g. 150,000.
func FormatAmount(amount float64) string {
	return message.NewPrinter(language.English).Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
}
