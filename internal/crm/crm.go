// Package crm forwards captured leads to the sales CRM.
package crm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"leadcapture/internal/config"
)

const (
	defaultLastName = "Unknown"
	leadCompany     = "Financial Services Lead"
	leadSource      = "Website Form"
	leadStatus      = "New"
	interestLevel   = "High"
)

type Gateway interface {
	SubmitLead(ctx context.Context, lead LeadPayload) (*Submission, error)
}

// LeadPayload uses the CRM's own field names.
type LeadPayload struct {
	FirstName     string  `json:"FirstName"`
	LastName      string  `json:"LastName"`
	Email         string  `json:"Email"`
	Phone         string  `json:"Phone"`
	Company       string  `json:"Company"`
	LeadSource    string  `json:"LeadSource"`
	Status        string  `json:"Status"`
	LoanAmount    float64 `json:"Loan_Amount__c"`
	LoanType      string  `json:"Loan_Type__c"`
	InterestLevel string  `json:"Interest_Level__c"`
	LeadScore     int     `json:"Lead_Score__c"`
}

type Submission struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

type Applicant struct {
	Name       string
	Email      string
	Phone      string
	LoanAmount float64
	LoanType   string
	LeadScore  int
}

// NewLeadPayload splits the full name on whitespace; everything after the
// first word becomes the last name.
func NewLeadPayload(a Applicant) LeadPayload {
	first, last := "", defaultLastName
	if parts := strings.Fields(a.Name); len(parts) > 0 {
		first = parts[0]
		if len(parts) > 1 {
			last = strings.Join(parts[1:], " ")
		}
	}

	return LeadPayload{
		FirstName:     first,
		LastName:      last,
		Email:         a.Email,
		Phone:         a.Phone,
		Company:       leadCompany,
		LeadSource:    leadSource,
		Status:        leadStatus,
		LoanAmount:    a.LoanAmount,
		LoanType:      a.LoanType,
		InterestLevel: interestLevel,
		LeadScore:     a.LeadScore,
	}
}

// New selects the gateway for cfg.CRMMode and wraps it in the process-wide
// rate limiter.
func New(cfg *config.Config, logger *zap.Logger) Gateway {
	var gw Gateway
	switch cfg.CRMMode {
	case config.CRMModeSalesforce:
		gw = NewSalesforce(cfg.SalesforceInstanceURL, cfg.SalesforceAPIVersion, cfg.SalesforceAccessToken, logger)
	default:
		gw = NewMock(logger, cfg.CRMMockLatency)
	}

	if cfg.CRMRateLimit > 0 {
		gw = NewRateLimited(gw, cfg.CRMRateLimit, cfg.CRMBurst)
	}
	return gw
}
