// Package determinism provides the primitives that keep pricing output
// reproducible: a single currency rounding boundary and stable ordering.
package determinism

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingPolicy selects the minor unit final prices are rounded to
type RoundingPolicy string

const (
	// RoundToCent rounds to two decimal places
	RoundToCent RoundingPolicy = "cent"

	// RoundToWhole rounds to whole currency units
	RoundToWhole RoundingPolicy = "whole"
)

// Places returns the number of decimal places kept by the policy
func (p RoundingPolicy) Places() int32 {
	if p == RoundToWhole {
		return 0
	}
	return 2
}

// IsValid checks if the policy is known
func (p RoundingPolicy) IsValid() bool {
	return p == RoundToCent || p == RoundToWhole
}

// ParseRoundingPolicy parses "cent" or "whole"; empty means cent
func ParseRoundingPolicy(s string) (RoundingPolicy, error) {
	p := RoundingPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return RoundToCent, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("unknown rounding policy %q (use cent or whole)", s)
	}
	return p, nil
}

// Round applies round-half-up at the policy's precision. This is the only
// place output money is rounded; everything upstream keeps full precision.
func Round(amount decimal.Decimal, policy RoundingPolicy) decimal.Decimal {
	return roundHalfUp(amount, policy.Places())
}

// RoundCents rounds half-up to two places regardless of policy, for derived
// per-unit figures and payments.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return roundHalfUp(amount, 2)
}

// CeilCents rounds up to the next cent. Payments use it so that the rounded
// installment still repays the principal.
func CeilCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(2).Ceil().Shift(-2)
}

var half = decimal.New(5, -1)

// roundHalfUp rounds ties toward positive infinity: floor(x*10^p + 0.5) / 10^p.
// decimal.Round rounds ties away from zero, which differs for negative amounts.
func roundHalfUp(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Shift(places).Add(half).Floor().Shift(-places)
}

// Money is an amount paired with its currency for display
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney pairs an amount with a currency code
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() string {
	return m.currency
}

// String returns the amount with thousands separators and two places
func (m Money) String() string {
	return fmt.Sprintf("%s %s", groupThousands(m.amount.StringFixed(2)), m.currency)
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

// SortSlice sorts a slice in a stable, deterministic manner
func SortSlice[T any](slice []T, less func(a, b T) bool) {
	sort.SliceStable(slice, func(i, j int) bool {
		return less(slice[i], slice[j])
	})
}

// SortedKeys returns a sorted copy of map keys
func SortedKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}
