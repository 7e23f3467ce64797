// Package financing computes fixed-rate loan payments and builds the lender
// schedule attached to each priced tier. Everything here is pure.
package financing

import (
	"sort"

	"github.com/shopspring/decimal"

	"roofquote/core/determinism"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// paymentPlaces is the working precision of computed payments. Output
// rounding to cents happens later, at the pricing boundary.
const paymentPlaces = 20

var (
	one         = decimal.NewFromInt(1)
	monthlyBase = decimal.NewFromInt(1200)
)

// MonthlyPayment returns the fixed monthly payment that repays principal over
// termMonths at annualRatePercent. A zero rate is an interest-free loan.
func MonthlyPayment(principal, annualRatePercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return decimal.Zero, errors.InvalidInput("principal must not be negative, got %s", principal)
	}
	if termMonths < 1 {
		return decimal.Zero, errors.InvalidInput("term must be at least 1 month, got %d", termMonths)
	}
	if annualRatePercent.IsNegative() {
		return decimal.Zero, errors.InvalidInput("annual rate must not be negative, got %s", annualRatePercent)
	}

	n := decimal.NewFromInt(int64(termMonths))
	if annualRatePercent.IsZero() {
		return divCeil(principal, n), nil
	}

	// r = APR / 100 / 12; payment = P * r * (1+r)^n / ((1+r)^n - 1)
	r := annualRatePercent.DivRound(monthlyBase, paymentPlaces)
	growth := one.Add(r).Pow(n)
	return divCeil(principal.Mul(r).Mul(growth), growth.Sub(one)), nil
}

// divCeil divides at paymentPlaces, rounding any remainder up so that
// payment * term never falls short of the principal.
func divCeil(num, den decimal.Decimal) decimal.Decimal {
	q, rem := num.QuoRem(den, paymentPlaces)
	if rem.Sign() > 0 {
		q = q.Add(decimal.New(1, -paymentPlaces))
	}
	return q
}

// BuildSchedule quotes every eligible (lender, term) pair for principal.
//
// Lenders whose [MinAmount, MaxAmount] does not contain principal are left
// out. A lender is offered on the requested terms it writes; when terms is
// empty each lender's own EligibleTerms are used. A principal of zero or less
// yields an empty schedule, which is a normal outcome and not an error.
//
// Options are ordered by lender (configured order) then ascending term.
func BuildSchedule(principal decimal.Decimal, lenders []types.Lender, terms []int) ([]types.FinancingOption, error) {
	for _, t := range terms {
		if t < 1 {
			return nil, errors.InvalidInput("term must be at least 1 month, got %d", t)
		}
	}
	for _, l := range lenders {
		if err := ValidateLender(l); err != nil {
			return nil, err
		}
	}

	options := []types.FinancingOption{}
	if !principal.IsPositive() {
		return options, nil
	}

	requested := normalizeTerms(terms)
	for _, lender := range lenders {
		if !lender.Covers(principal) {
			continue
		}

		candidates := requested
		if len(candidates) == 0 {
			candidates = normalizeTerms(lender.EligibleTerms)
		}

		for _, term := range candidates {
			if !lender.OffersTerm(term) {
				continue
			}
			monthly, err := MonthlyPayment(principal, lender.APRPercent, term)
			if err != nil {
				return nil, err
			}
			total := monthly.Mul(decimal.NewFromInt(int64(term)))
			options = append(options, types.FinancingOption{
				Lender:         lender.Name,
				TermMonths:     term,
				APRPercent:     lender.APRPercent,
				Principal:      principal,
				MonthlyPayment: monthly,
				TotalPayment:   total,
				TotalInterest:  total.Sub(principal),
			})
		}
	}

	return options, nil
}

// Rounded returns the schedule as quoted to a customer. The monthly payment is
// rounded up to the cent once; the totals are derived from that figure, so
// TotalPayment is always MonthlyPayment * TermMonths and never below the
// principal.
func Rounded(options []types.FinancingOption) []types.FinancingOption {
	out := make([]types.FinancingOption, len(options))
	for i, o := range options {
		o.MonthlyPayment = determinism.CeilCents(o.MonthlyPayment)
		o.TotalPayment = o.MonthlyPayment.Mul(decimal.NewFromInt(int64(o.TermMonths)))
		o.TotalInterest = o.TotalPayment.Sub(o.Principal)
		out[i] = o
	}
	return out
}

// LowestMonthlyPayment picks the headline option: the minimum monthly payment,
// ties broken by the shorter term, then by schedule order.
func LowestMonthlyPayment(options []types.FinancingOption) (types.FinancingOption, bool) {
	if len(options) == 0 {
		return types.FinancingOption{}, false
	}
	best := options[0]
	for _, o := range options[1:] {
		switch o.MonthlyPayment.Cmp(best.MonthlyPayment) {
		case -1:
			best = o
		case 0:
			if o.TermMonths < best.TermMonths {
				best = o
			}
		}
	}
	return best, true
}

// ValidateLender checks a lender panel entry
func ValidateLender(l types.Lender) error {
	if l.Name == "" {
		return errors.InvalidInput("lender name is required")
	}
	if l.APRPercent.IsNegative() {
		return errors.InvalidInput("lender %s: APR must not be negative, got %s", l.Name, l.APRPercent)
	}
	if l.MinAmount.IsNegative() || l.MaxAmount.LessThan(l.MinAmount) {
		return errors.InvalidInput("lender %s: invalid amount range [%s, %s]", l.Name, l.MinAmount, l.MaxAmount)
	}
	for _, t := range l.EligibleTerms {
		if t < 1 {
			return errors.InvalidInput("lender %s: term must be at least 1 month, got %d", l.Name, t)
		}
	}
	return nil
}

// normalizeTerms returns the distinct terms in ascending order
func normalizeTerms(terms []int) []int {
	seen := make(map[int]bool, len(terms))
	out := make([]int, 0, len(terms))
	for _, t := range terms {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Ints(out)
	return out
}
