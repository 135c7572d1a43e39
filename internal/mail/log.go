package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes outgoing mail to the log instead of delivering it. Template
// variables are not logged since they can hold credentials.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendMail(ctx context.Context, e *Email) error {
	m.logger.Info("mail not delivered, no provider configured",
		zap.Strings("to", e.To),
		zap.String("subject", e.Subject),
	)
	return nil
}

func (m *LogMailer) SendTemplatedMail(ctx context.Context, e *Email) error {
	m.logger.Info("templated mail not delivered, no provider configured",
		zap.Strings("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("template", e.Template),
	)
	return nil
}
