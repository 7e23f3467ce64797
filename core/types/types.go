// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions and
// enumeration checks.
package types

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
	CurrencyEUR Currency = "EUR"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Pitch is a roof slope expressed as rise over a 12 inch run
type Pitch string

const (
	Pitch4  Pitch = "4/12"
	Pitch5  Pitch = "5/12"
	Pitch6  Pitch = "6/12"
	Pitch7  Pitch = "7/12"
	Pitch8  Pitch = "8/12"
	Pitch9  Pitch = "9/12"
	Pitch10 Pitch = "10/12"
	Pitch11 Pitch = "11/12"
	Pitch12 Pitch = "12/12"
)

// Pitches lists every supported pitch from shallowest to steepest
var Pitches = []Pitch{Pitch4, Pitch5, Pitch6, Pitch7, Pitch8, Pitch9, Pitch10, Pitch11, Pitch12}

// IsValid checks if the pitch is one of the supported ratios
func (p Pitch) IsValid() bool {
	for _, known := range Pitches {
		if p == known {
			return true
		}
	}
	return false
}

// Complexity grades how cut-up a roof is (valleys, dormers, penetrations)
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Complexities lists every complexity grade
var Complexities = []Complexity{ComplexitySimple, ComplexityModerate, ComplexityComplex}

// IsValid checks if the complexity is known
func (c Complexity) IsValid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// TierName identifies one of the three offer levels
type TierName string

const (
	TierGood   TierName = "good"
	TierBetter TierName = "better"
	TierBest   TierName = "best"
)

// Tiers lists the offer levels in ascending order
var Tiers = []TierName{TierGood, TierBetter, TierBest}

// IsValid checks if the tier name is known
func (t TierName) IsValid() bool {
	switch t {
	case TierGood, TierBetter, TierBest:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (t TierName) String() string {
	return string(t)
}
