// Package types - Pricing input and tier output types
package types

import "github.com/shopspring/decimal"

// Margins holds the revenue margin percentage for each tier
type Margins struct {
	Good   decimal.Decimal `json:"good"`
	Better decimal.Decimal `json:"better"`
	Best   decimal.Decimal `json:"best"`
}

// DefaultMargins returns the 25/30/35 split used when none is configured
func DefaultMargins() Margins {
	return Margins{
		Good:   decimal.NewFromInt(25),
		Better: decimal.NewFromInt(30),
		Best:   decimal.NewFromInt(35),
	}
}

// For returns the margin for a tier
func (m Margins) For(tier TierName) decimal.Decimal {
	switch tier {
	case TierGood:
		return m.Good
	case TierBetter:
		return m.Better
	case TierBest:
		return m.Best
	default:
		return decimal.Zero
	}
}

// PricingInput describes one job to be priced. It is passed by value; a new
// calculation is a new value.
type PricingInput struct {
	// RoofArea is the measured roof surface in square feet
	RoofArea decimal.Decimal `json:"roof_area"`

	// Pitch is the roof slope
	Pitch Pitch `json:"pitch"`

	// Complexity is the roof complexity grade
	Complexity Complexity `json:"complexity"`

	// Stories is the building height in stories
	Stories int `json:"stories"`

	// WastePercentage is added to the ordered material quantity
	WastePercentage decimal.Decimal `json:"waste_percentage"`

	// OverheadPercentage is applied to material plus labor
	OverheadPercentage decimal.Decimal `json:"overhead_percentage"`

	// ProfitMargins is the revenue margin per tier
	ProfitMargins Margins `json:"profit_margins"`
}

// Warranty describes the coverage attached to a tier
type Warranty struct {
	Years int    `json:"years"`
	Type  string `json:"type"`
}

// LineItem is one component of a tier's selling price
type LineItem struct {
	// Label is a human-readable label
	Label string `json:"label"`

	// Quantity is the billed quantity, zero for lump sums
	Quantity decimal.Decimal `json:"quantity"`

	// Unit is the billing unit (e.g., "square")
	Unit string `json:"unit,omitempty"`

	// Amount is the line total
	Amount decimal.Decimal `json:"amount"`
}

// TierPricing is the priced result for one tier
type TierPricing struct {
	Tier           TierName          `json:"tier"`
	MaterialLabel  string            `json:"material_label"`
	Warranty       Warranty          `json:"warranty"`
	Squares        decimal.Decimal   `json:"squares"`
	MaterialQty    decimal.Decimal   `json:"material_quantity"`
	MarginPercent  decimal.Decimal   `json:"margin_percent"`
	SellingPrice   decimal.Decimal   `json:"selling_price"`
	PricePerSquare decimal.Decimal   `json:"price_per_square"`
	Breakdown      []LineItem        `json:"breakdown"`
	Financing      []FinancingOption `json:"financing"`

	// Headline is the lowest monthly payment among Financing, nil when empty
	Headline *FinancingOption `json:"headline,omitempty"`
}

// TierSet holds the three tiers produced together from one PricingInput
type TierSet struct {
	Currency Currency    `json:"currency"`
	Good     TierPricing `json:"good"`
	Better   TierPricing `json:"better"`
	Best     TierPricing `json:"best"`
}

// Get returns the tier with the given name
func (s TierSet) Get(name TierName) (TierPricing, bool) {
	switch name {
	case TierGood:
		return s.Good, true
	case TierBetter:
		return s.Better, true
	case TierBest:
		return s.Best, true
	default:
		return TierPricing{}, false
	}
}

// All returns the tiers in ascending order
func (s TierSet) All() []TierPricing {
	return []TierPricing{s.Good, s.Better, s.Best}
}
