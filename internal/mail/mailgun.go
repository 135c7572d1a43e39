package mail

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const (
	sendTimeout          = 5 * time.Second
	sendTemplatedTimeout = 10 * time.Second
)

type Email struct {
	Subject      string
	Body         string
	From         string
	To           []string
	Template     string
	TemplateVars map[string]any
}

type Mailer interface {
	SendMail(ctx context.Context, e *Email) error
	SendTemplatedMail(ctx context.Context, e *Email) error
}

type Mailgun struct {
	domain  string
	apiKey  string
	apiBase string
}

func NewMailer(domain, apiKey, apiBase string) *Mailgun {
	return &Mailgun{
		domain:  domain,
		apiKey:  apiKey,
		apiBase: apiBase,
	}
}

func (m *Mailgun) client() *mailgun.MailgunImpl {
	mg := mailgun.NewMailgun(m.domain, m.apiKey)
	if m.apiBase != "" {
		mg.SetAPIBase(m.apiBase)
	}
	return mg
}

func (m *Mailgun) SendMail(ctx context.Context, e *Email) error {
	message := mailgun.NewMessage(e.From, e.Subject, e.Body, e.To...)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, _, err := m.client().Send(ctx, message)
	return err
}

func (m *Mailgun) SendTemplatedMail(ctx context.Context, e *Email) error {
	message := mailgun.NewMessage(e.From, e.Subject, "", e.To...)
	message.SetTemplate(e.Template)

	for k, v := range e.TemplateVars {
		if err := message.AddTemplateVariable(k, v); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, sendTemplatedTimeout)
	defer cancel()

	_, _, err := m.client().Send(ctx, message)
	return err
}
