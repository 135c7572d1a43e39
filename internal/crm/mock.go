package crm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"leadcapture/pkg/utils"
)

// Mock accepts every lead and answers with a CRM-shaped lead id.
type Mock struct {
	logger  *zap.Logger
	latency time.Duration
}

func NewMock(logger *zap.Logger, latency time.Duration) *Mock {
	return &Mock{logger: logger, latency: latency}
}

func (m *Mock) SubmitLead(ctx context.Context, lead LeadPayload) (*Submission, error) {
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	id := "00Q" + utils.GenerateLowerAlnum(15)

	m.logger.Info("mock crm lead created",
		zap.String("crm_id", id),
		zap.String("email", lead.Email),
		zap.String("loan_type", lead.LoanType),
		zap.Int("lead_score", lead.LeadScore),
	)

	return &Submission{ID: id, Success: true}, nil
}
