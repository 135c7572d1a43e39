package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type salesforceError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

type salesforceResult struct {
	ID      string            `json:"id"`
	Success bool              `json:"success"`
	Errors  []salesforceError `json:"errors"`
}

type Salesforce struct {
	client     *resty.Client
	apiVersion string
	logger     *zap.Logger
}

func NewSalesforce(instanceURL, apiVersion, accessToken string, logger *zap.Logger) *Salesforce {
	client := resty.New().
		SetBaseURL(strings.TrimRight(instanceURL, "/")).
		SetHeader("Accept", "application/json").
		SetAuthToken(accessToken)

	return &Salesforce{client: client, apiVersion: apiVersion, logger: logger}
}

func (s *Salesforce) SubmitLead(ctx context.Context, lead LeadPayload) (*Submission, error) {
	var result salesforceResult
	var failures []salesforceError

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(lead).
		SetResult(&result).
		SetError(&failures).
		Post(fmt.Sprintf("/services/data/%s/sobjects/Lead/", s.apiVersion))
	if err != nil {
		return nil, fmt.Errorf("salesforce request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("salesforce returned %d: %w", resp.StatusCode(), joinErrors(failures))
	}
	if !result.Success || result.ID == "" {
		return nil, fmt.Errorf("salesforce rejected lead: %w", joinErrors(result.Errors))
	}

	s.logger.Debug("salesforce lead created", zap.String("crm_id", result.ID))

	return &Submission{ID: result.ID, Success: true}, nil
}

func joinErrors(errs []salesforceError) error {
	if len(errs) == 0 {
		return errors.New("no error details")
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.ErrorCode, e.Message))
	}
	return errors.New(strings.Join(msgs, "; "))
}
