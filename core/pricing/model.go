// Package pricing turns a roof measurement into three priced offer tiers.
//
// All cost knobs live in a CostModel that callers inject; the calculator
// holds no compiled-in rates, so one engine can serve tenants with different
// lender panels and labor markets.
package pricing

import (
	"github.com/shopspring/decimal"

	"roofquote/core/determinism"
	"roofquote/core/financing"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// PercentBounds is an inclusive range a percentage must fall within
type PercentBounds struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Contains reports whether v lies within the bounds
func (b PercentBounds) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(b.Min) && v.LessThanOrEqual(b.Max)
}

// Bounds holds the accepted range of each percentage input
type Bounds struct {
	Waste    PercentBounds `json:"waste"`
	Overhead PercentBounds `json:"overhead"`
	Margin   PercentBounds `json:"margin"`
}

// TierConfig is the static, non-computed description of a tier
type TierConfig struct {
	// MaterialLabel names the product line quoted at this tier
	MaterialLabel string `json:"material_label"`

	// MaterialMultiplier scales the base material cost for the product line
	MaterialMultiplier decimal.Decimal `json:"material_multiplier"`

	// Warranty is attached verbatim to the tier
	Warranty types.Warranty `json:"warranty"`
}

// CostModel is the complete pricing configuration
type CostModel struct {
	Currency types.Currency `json:"currency"`

	// MaterialCostPerSquare and LaborCostPerSquare are base rates per ordered square
	MaterialCostPerSquare decimal.Decimal `json:"material_cost_per_square"`
	LaborCostPerSquare    decimal.Decimal `json:"labor_cost_per_square"`

	// Labor multipliers
	PitchMultipliers      map[types.Pitch]decimal.Decimal      `json:"pitch_multipliers"`
	ComplexityMultipliers map[types.Complexity]decimal.Decimal `json:"complexity_multipliers"`
	StoryMultipliers      map[int]decimal.Decimal              `json:"story_multipliers"`

	// ExtraStoryStep is added per story above the tallest configured story
	ExtraStoryStep decimal.Decimal `json:"extra_story_step"`

	Tiers    map[types.TierName]TierConfig `json:"tiers"`
	Bounds   Bounds                        `json:"bounds"`

	// DefaultMargins fills in tier margins a request leaves out
	DefaultMargins types.Margins `json:"default_margins"`

	Rounding determinism.RoundingPolicy    `json:"rounding"`

	// Lenders and Terms feed the financing schedule of every tier
	Lenders []types.Lender `json:"lenders"`
	Terms   []int          `json:"terms"`
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultCostModel returns the built-in catalog used when no HCL catalog is
// configured.
func DefaultCostModel() CostModel {
	return CostModel{
		Currency:              types.CurrencyUSD,
		MaterialCostPerSquare: d("135"),
		LaborCostPerSquare:    d("85"),
		PitchMultipliers: map[types.Pitch]decimal.Decimal{
			types.Pitch4:  d("1.00"),
			types.Pitch5:  d("1.00"),
			types.Pitch6:  d("1.05"),
			types.Pitch7:  d("1.10"),
			types.Pitch8:  d("1.20"),
			types.Pitch9:  d("1.30"),
			types.Pitch10: d("1.40"),
			types.Pitch11: d("1.50"),
			types.Pitch12: d("1.60"),
		},
		ComplexityMultipliers: map[types.Complexity]decimal.Decimal{
			types.ComplexitySimple:   d("1.00"),
			types.ComplexityModerate: d("1.15"),
			types.ComplexityComplex:  d("1.35"),
		},
		StoryMultipliers: map[int]decimal.Decimal{
			1: d("1.00"),
			2: d("1.10"),
			3: d("1.25"),
		},
		ExtraStoryStep: d("0.15"),
		Tiers: map[types.TierName]TierConfig{
			types.TierGood: {
				MaterialLabel:      "3-Tab Asphalt Shingles",
				MaterialMultiplier: d("1.00"),
				Warranty:           types.Warranty{Years: 10, Type: "workmanship"},
			},
			types.TierBetter: {
				MaterialLabel:      "Architectural Shingles",
				MaterialMultiplier: d("1.20"),
				Warranty:           types.Warranty{Years: 25, Type: "manufacturer and workmanship"},
			},
			types.TierBest: {
				MaterialLabel:      "Designer Shingles with Synthetic Underlayment",
				MaterialMultiplier: d("1.45"),
				Warranty:           types.Warranty{Years: 50, Type: "lifetime system"},
			},
		},
		Bounds: Bounds{
			Waste:    PercentBounds{Min: d("5"), Max: d("20")},
			Overhead: PercentBounds{Min: d("10"), Max: d("30")},
			Margin:   PercentBounds{Min: d("0"), Max: d("60")},
		},
		DefaultMargins: types.DefaultMargins(),
		Rounding: determinism.RoundToCent,
		Lenders: []types.Lender{
			{Name: "Service Finance Same-As-Cash", APRPercent: d("0"), EligibleTerms: []int{12}, MinAmount: d("1000"), MaxAmount: d("25000")},
			{Name: "GreenSky", APRPercent: d("7.99"), EligibleTerms: []int{60, 84, 120}, MinAmount: d("5000"), MaxAmount: d("100000")},
			{Name: "Hearth", APRPercent: d("9.99"), EligibleTerms: []int{36, 60, 120, 144}, MinAmount: d("2500"), MaxAmount: d("75000")},
		},
		Terms: []int{12, 36, 60, 84, 120, 144},
	}
}

// StoryMultiplier returns the labor multiplier for a building height. Heights
// above the tallest configured entry extend it by ExtraStoryStep per story.
func (m CostModel) StoryMultiplier(stories int) (decimal.Decimal, error) {
	if stories < 1 {
		return decimal.Zero, errors.InvalidInput("stories must be at least 1, got %d", stories)
	}
	if v, ok := m.StoryMultipliers[stories]; ok {
		return v, nil
	}

	tallest := 0
	for s := range m.StoryMultipliers {
		if s > tallest {
			tallest = s
		}
	}
	if tallest == 0 || stories < tallest {
		return decimal.Zero, errors.InvalidInput("no story multiplier configured for %d stories", stories)
	}
	extra := decimal.NewFromInt(int64(stories - tallest)).Mul(m.ExtraStoryStep)
	return m.StoryMultipliers[tallest].Add(extra), nil
}

// Validate checks the model is internally consistent. Tier material
// multipliers and warranty years must not decrease from good to best.
func (m CostModel) Validate() error {
	if !m.MaterialCostPerSquare.IsPositive() || !m.LaborCostPerSquare.IsPositive() {
		return errors.Newf(errors.TypeConfig, "base material and labor rates must be positive")
	}
	for _, p := range determinism.SortedKeys(m.PitchMultipliers) {
		if !p.IsValid() {
			return errors.Newf(errors.TypeConfig, "unknown pitch %q in multiplier table", p)
		}
		if !m.PitchMultipliers[p].IsPositive() {
			return errors.Newf(errors.TypeConfig, "pitch %s multiplier must be positive", p)
		}
	}
	for _, c := range types.Complexities {
		v, ok := m.ComplexityMultipliers[c]
		if !ok || !v.IsPositive() {
			return errors.Newf(errors.TypeConfig, "complexity %s needs a positive multiplier", c)
		}
	}
	if _, ok := m.StoryMultipliers[1]; !ok {
		return errors.Newf(errors.TypeConfig, "story multiplier table must include 1 story")
	}
	for _, s := range determinism.SortedKeys(m.StoryMultipliers) {
		if s < 1 || !m.StoryMultipliers[s].IsPositive() {
			return errors.Newf(errors.TypeConfig, "invalid story multiplier for %d stories", s)
		}
	}
	if m.ExtraStoryStep.IsNegative() {
		return errors.Newf(errors.TypeConfig, "extra story step must not be negative")
	}

	var prev TierConfig
	for i, name := range types.Tiers {
		tc, ok := m.Tiers[name]
		if !ok {
			return errors.Newf(errors.TypeConfig, "tier %s is not configured", name)
		}
		if !tc.MaterialMultiplier.IsPositive() {
			return errors.Newf(errors.TypeConfig, "tier %s material multiplier must be positive", name)
		}
		if i > 0 && (tc.MaterialMultiplier.LessThan(prev.MaterialMultiplier) || tc.Warranty.Years < prev.Warranty.Years) {
			return errors.Newf(errors.TypeConfig, "tier %s must not step down from the tier below it", name)
		}
		prev = tc
	}

	bounds := []struct {
		name string
		b    PercentBounds
	}{
		{"waste", m.Bounds.Waste},
		{"overhead", m.Bounds.Overhead},
		{"margin", m.Bounds.Margin},
	}
	for _, nb := range bounds {
		if nb.b.Min.IsNegative() || nb.b.Max.LessThan(nb.b.Min) {
			return errors.Newf(errors.TypeConfig, "invalid %s bounds [%s, %s]", nb.name, nb.b.Min, nb.b.Max)
		}
	}
	if m.Bounds.Margin.Max.GreaterThanOrEqual(hundred) {
		return errors.Newf(errors.TypeConfig, "margin bound must stay below 100%%, got %s", m.Bounds.Margin.Max)
	}
	for i, tier := range types.Tiers {
		v := m.DefaultMargins.For(tier)
		if !m.Bounds.Margin.Contains(v) {
			return errors.Newf(errors.TypeConfig, "default %s margin %s is outside [%s, %s]", tier, v, m.Bounds.Margin.Min, m.Bounds.Margin.Max)
		}
		if i > 0 && v.LessThan(m.DefaultMargins.For(types.Tiers[i-1])) {
			return errors.Newf(errors.TypeConfig, "default %s margin must not be below the %s margin", tier, types.Tiers[i-1])
		}
	}
	if !m.Rounding.IsValid() {
		return errors.Newf(errors.TypeConfig, "unknown rounding policy %q", m.Rounding)
	}

	for _, l := range m.Lenders {
		if err := financing.ValidateLender(l); err != nil {
			return errors.Config("invalid lender panel", err)
		}
	}
	for _, t := range m.Terms {
		if t < 1 {
			return errors.Newf(errors.TypeConfig, "financing term must be at least 1 month, got %d", t)
		}
	}
	return nil
}
