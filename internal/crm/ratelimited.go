package crm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited caps the request rate towards the CRM across the process.
type RateLimited struct {
	next    Gateway
	limiter *rate.Limiter
}

func NewRateLimited(next Gateway, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) SubmitLead(ctx context.Context, lead LeadPayload) (*Submission, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.SubmitLead(ctx, lead)
}
