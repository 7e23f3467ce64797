// Package types - Financing types
package types

import "github.com/shopspring/decimal"

// Lender is one entry of the configured lender panel
type Lender struct {
	// Name identifies the lender or financing program
	Name string `json:"name"`

	// APRPercent is the annual percentage rate, e.g. 7.99
	APRPercent decimal.Decimal `json:"apr_percent"`

	// EligibleTerms restricts the terms offered; empty offers every requested term
	EligibleTerms []int `json:"eligible_terms,omitempty"`

	// MinAmount and MaxAmount bound the financed principal, inclusive
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
}

// Covers reports whether the principal falls inside the lender's range
func (l Lender) Covers(principal decimal.Decimal) bool {
	return principal.GreaterThanOrEqual(l.MinAmount) && principal.LessThanOrEqual(l.MaxAmount)
}

// OffersTerm reports whether the lender writes loans of the given length
func (l Lender) OffersTerm(months int) bool {
	if len(l.EligibleTerms) == 0 {
		return true
	}
	for _, t := range l.EligibleTerms {
		if t == months {
			return true
		}
	}
	return false
}

// FinancingOption is one (lender, term) quote for a principal
type FinancingOption struct {
	Lender         string          `json:"lender"`
	TermMonths     int             `json:"term_months"`
	APRPercent     decimal.Decimal `json:"apr_percent"`
	Principal      decimal.Decimal `json:"principal"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
}
