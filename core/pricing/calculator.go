package pricing

import (
	"github.com/shopspring/decimal"

	"roofquote/core/determinism"
	"roofquote/core/financing"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// workingPlaces is the precision kept through divisions before the final
// rounding boundary
const workingPlaces = 20

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Calculator prices jobs against one CostModel. It holds no mutable state and
// is safe for concurrent use.
type Calculator struct {
	model CostModel
}

// NewCalculator validates the model and returns a calculator bound to it
func NewCalculator(model CostModel) (*Calculator, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{model: model}, nil
}

// Model returns the cost model the calculator was built with
func (c *Calculator) Model() CostModel {
	return c.model
}

// Defaults returns the starting point for a job description: everything
// zero except the model's default tier margins. Callers decode or edit on top
// of it, so margins a request leaves out keep their defaults.
func (c *Calculator) Defaults() types.PricingInput {
	return types.PricingInput{ProfitMargins: c.model.DefaultMargins}
}

// NewInput validates a job description and returns it ready for pricing.
// Out-of-range values are rejected, never clamped.
func (c *Calculator) NewInput(in types.PricingInput) (types.PricingInput, error) {
	if err := c.Validate(in); err != nil {
		return types.PricingInput{}, err
	}
	return in, nil
}

// Validate checks a PricingInput against the model's enumerations and bounds
func (c *Calculator) Validate(in types.PricingInput) error {
	if !in.RoofArea.IsPositive() {
		return errors.InvalidInput("roof area must be positive, got %s", in.RoofArea)
	}
	if in.Stories < 1 {
		return errors.InvalidInput("stories must be at least 1, got %d", in.Stories)
	}
	if _, ok := c.model.PitchMultipliers[in.Pitch]; !ok || !in.Pitch.IsValid() {
		return errors.InvalidInput("unknown pitch %q", in.Pitch)
	}
	if !in.Complexity.IsValid() {
		return errors.InvalidInput("unknown complexity %q", in.Complexity)
	}
	if _, err := c.model.StoryMultiplier(in.Stories); err != nil {
		return err
	}

	b := c.model.Bounds
	if !b.Waste.Contains(in.WastePercentage) {
		return outOfBounds("waste percentage", in.WastePercentage, b.Waste)
	}
	if !b.Overhead.Contains(in.OverheadPercentage) {
		return outOfBounds("overhead percentage", in.OverheadPercentage, b.Overhead)
	}
	for _, tier := range types.Tiers {
		m := in.ProfitMargins.For(tier)
		if !b.Margin.Contains(m) {
			return outOfBounds(string(tier)+" margin", m, b.Margin)
		}
	}
	return nil
}

func outOfBounds(field string, v decimal.Decimal, b PercentBounds) error {
	return errors.InvalidInput("%s %s is outside [%s, %s]", field, v, b.Min, b.Max).
		WithContext("field", field)
}

// CalculateTiers prices the job at all three tiers.
//
//	squares          = roofArea / 100
//	materialQuantity = squares * (1 + waste%)
//	material         = materialQuantity * materialRate * tierMaterialMultiplier
//	labor            = materialQuantity * laborRate * pitch * complexity * stories
//	overhead         = (material + labor) * overhead%
//	sellingPrice     = (material + labor + overhead) / (1 - margin%)
//
// The margin is a share of the selling price, not a markup on cost. The
// selling price is rounded once, at the end, and financing is quoted on the
// rounded figure with each monthly payment rounded up to the cent.
func (c *Calculator) CalculateTiers(in types.PricingInput) (types.TierSet, error) {
	if err := c.Validate(in); err != nil {
		return types.TierSet{}, err
	}

	m := c.model
	storyMult, err := m.StoryMultiplier(in.Stories)
	if err != nil {
		return types.TierSet{}, err
	}

	squares := in.RoofArea.Shift(-2)
	quantity := squares.Mul(one.Add(in.WastePercentage.Shift(-2)))
	laborFactor := m.PitchMultipliers[in.Pitch].
		Mul(m.ComplexityMultipliers[in.Complexity]).
		Mul(storyMult)

	baseMaterial := quantity.Mul(m.MaterialCostPerSquare)
	labor := quantity.Mul(m.LaborCostPerSquare).Mul(laborFactor)

	set := types.TierSet{Currency: m.Currency}
	for _, name := range types.Tiers {
		tier, err := c.priceTier(name, in, squares, quantity, baseMaterial, labor)
		if err != nil {
			return types.TierSet{}, err
		}
		switch name {
		case types.TierGood:
			set.Good = tier
		case types.TierBetter:
			set.Better = tier
		case types.TierBest:
			set.Best = tier
		}
	}
	return set, nil
}

func (c *Calculator) priceTier(name types.TierName, in types.PricingInput, squares, quantity, baseMaterial, labor decimal.Decimal) (types.TierPricing, error) {
	m := c.model
	tc := m.Tiers[name]
	margin := in.ProfitMargins.For(name)

	material := baseMaterial.Mul(tc.MaterialMultiplier)
	subtotal := material.Add(labor)
	overhead := subtotal.Mul(in.OverheadPercentage.Shift(-2))
	cost := subtotal.Add(overhead)
	selling := cost.DivRound(one.Sub(margin.Shift(-2)), workingPlaces)

	price := determinism.Round(selling, m.Rounding)
	perSquare := determinism.RoundCents(price.DivRound(squares, workingPlaces))

	schedule, err := financing.BuildSchedule(price, m.Lenders, m.Terms)
	if err != nil {
		return types.TierPricing{}, err
	}
	options := financing.Rounded(schedule)

	tier := types.TierPricing{
		Tier:           name,
		MaterialLabel:  tc.MaterialLabel,
		Warranty:       tc.Warranty,
		Squares:        squares,
		MaterialQty:    quantity,
		MarginPercent:  margin,
		SellingPrice:   price,
		PricePerSquare: perSquare,
		Breakdown:      c.breakdown(tc, quantity, material, labor, overhead, price),
		Financing:      options,
	}
	if headline, ok := financing.LowestMonthlyPayment(options); ok {
		tier.Headline = &headline
	}
	return tier, nil
}

// breakdown rounds each cost line and lets the margin line absorb the
// difference, so the lines always sum to the selling price.
func (c *Calculator) breakdown(tc TierConfig, quantity, material, labor, overhead, price decimal.Decimal) []types.LineItem {
	policy := c.model.Rounding
	mat := determinism.Round(material, policy)
	lab := determinism.Round(labor, policy)
	ovh := determinism.Round(overhead, policy)

	return []types.LineItem{
		{Label: "Materials: " + tc.MaterialLabel, Quantity: quantity, Unit: "square", Amount: mat},
		{Label: "Labor", Quantity: quantity, Unit: "square", Amount: lab},
		{Label: "Overhead", Amount: ovh},
		{Label: "Margin", Amount: price.Sub(mat).Sub(lab).Sub(ovh)},
	}
}
