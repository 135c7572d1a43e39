// Package scoring computes the lead score and indicative interest rate from
// the requested amount and loan type. Both functions are pure.
package scoring

import (
	"fmt"

	"leadcapture/internal/database"
)

const (
	baseScore = 50
	maxScore  = 100
)

func LeadScore(amount float64, loanType database.LoanType) int {
	score := baseScore

	switch {
	case amount >= 100_000:
		score += 30
	case amount >= 50_000:
		score += 20
	case amount >= 25_000:
		score += 10
	}

	switch loanType {
	case database.LoanMortgage:
		score += 25
	case database.LoanBusiness:
		score += 20
	case database.LoanPersonal:
		score += 10
	}

	return min(score, maxScore)
}

func EstimatedRate(amount float64, loanType database.LoanType) string {
	var rate float64
	switch loanType {
	case database.LoanMortgage:
		rate = 6.5
	case database.LoanBusiness:
		rate = 8.5
	case database.LoanPersonal:
		rate = 12.5
	default:
		rate = 10.0
	}

	switch {
	case amount >= 100_000:
		rate -= 1.0
	case amount >= 50_000:
		rate -= 0.5
	}

	return fmt.Sprintf("%.2f%%", rate)
}
