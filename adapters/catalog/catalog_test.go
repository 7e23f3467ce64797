package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"roofquote/core/determinism"
	"roofquote/core/types"
	"roofquote/internal/config"
	"roofquote/internal/errors"
)

const regionalCatalog = `
currency = "cad"
rounding = "whole"

rates {
  material_per_square = 150.50
  labor_per_square    = 95
}

story "1" { multiplier = 1.0 }
story "2" { multiplier = 1.2 }

tier "best" {
  material            = "Metal Standing Seam"
  material_multiplier = 2.1
  warranty_years      = 50
  warranty_type       = "lifetime system"
}

bounds {
  margin = [10, 50]
}

margins {
  good = 20
  best = 40
}

lender "Financeit" {
  apr        = 6.99
  terms      = [60, 120]
  min_amount = 3000
  max_amount = 80000
}

financing {
  terms = [60, 120]
}

scoring {
  high_quality_sources = ["referral", "storm_canvass"]
  decision_maker       = 10
}
`

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(regionalCatalog), "regional.hcl")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := c.Model

	if m.Currency != types.CurrencyCAD || m.Rounding != determinism.RoundToWhole {
		t.Errorf("currency=%s rounding=%s", m.Currency, m.Rounding)
	}
	if !m.MaterialCostPerSquare.Equal(decimal.RequireFromString("150.50")) {
		t.Errorf("material rate = %s", m.MaterialCostPerSquare)
	}
	if !m.ExtraStoryStep.Equal(decimal.RequireFromString("0.15")) {
		t.Errorf("unset rate should keep its default, got %s", m.ExtraStoryStep)
	}
	if len(m.StoryMultipliers) != 2 || !m.StoryMultipliers[2].Equal(decimal.RequireFromString("1.2")) {
		t.Errorf("story table = %v", m.StoryMultipliers)
	}
	if got := m.Tiers[types.TierBest].MaterialLabel; got != "Metal Standing Seam" {
		t.Errorf("best tier = %q", got)
	}
	if got := m.Tiers[types.TierGood].MaterialLabel; got != "3-Tab Asphalt Shingles" {
		t.Errorf("good tier should keep its default, got %q", got)
	}
	if !m.Bounds.Margin.Min.Equal(decimal.NewFromInt(10)) || !m.Bounds.Waste.Max.Equal(decimal.NewFromInt(20)) {
		t.Errorf("bounds = %+v", m.Bounds)
	}
	dm := m.DefaultMargins
	if !dm.Good.Equal(decimal.NewFromInt(20)) || !dm.Better.Equal(decimal.NewFromInt(30)) || !dm.Best.Equal(decimal.NewFromInt(40)) {
		t.Errorf("default margins = %s/%s/%s", dm.Good, dm.Better, dm.Best)
	}
	if len(m.Lenders) != 1 || m.Lenders[0].Name != "Financeit" || len(m.Lenders[0].EligibleTerms) != 2 {
		t.Errorf("lenders = %+v", m.Lenders)
	}
	if len(m.Terms) != 2 {
		t.Errorf("terms = %v", m.Terms)
	}

	w := c.Weights
	if w.DecisionMaker != 10 || len(w.HighQualitySources) != 2 || w.HighQualitySources[1] != types.SourceStorm {
		t.Errorf("weights = %+v", w)
	}
	if w.ContactComplete != 10 {
		t.Errorf("unset weight should keep its default, got %d", w.ContactComplete)
	}
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `rates {`},
		{"unknown block", `surcharge "x" {}`},
		{"bad number", `rates { labor_per_square = "lots" }`},
		{"unknown tier", `tier "platinum" {
  material = "Slate"
  material_multiplier = 3
  warranty_years = 75
  warranty_type = "lifetime"
}`},
		{"tier steps down", `tier "best" {
  material = "Cheap"
  material_multiplier = 0.5
  warranty_years = 5
  warranty_type = "none"
}`},
		{"bad bounds", `bounds { waste = [5] }`},
		{"margin of 100", `bounds { margin = [0, 100] }`},
		{"margins step down", `margins { better = 20 }`},
		{"margin outside bounds", `bounds { margin = [10, 30] }`},
		{"inverted lender range", `lender "X" {
  apr = 5
  min_amount = 9000
  max_amount = 1000
}`},
		{"bad story label", `story "two" { multiplier = 1.1 }`},
		{"negative weight", `scoring { decision_maker = -5 }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			if !errors.IsType(err, errors.TypeConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || c.Source != "" {
		t.Fatalf("Load(\"\") = %+v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "catalog.hcl")
	if err := os.WriteFile(path, []byte(regionalCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Source != path {
		t.Errorf("source = %q", c.Source)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.hcl")); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected config error for missing file, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(config.PricingConfig{Currency: "eur", Rounding: "whole"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if c.Model.Currency != types.Currency("EUR") || c.Model.Rounding != determinism.RoundToWhole {
		t.Errorf("overrides not applied: %s %s", c.Model.Currency, c.Model.Rounding)
	}

	if _, err := FromConfig(config.PricingConfig{Rounding: "nearest-dime"}); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.hcl")
	if err := os.WriteFile(path, []byte(regionalCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = FromConfig(config.PricingConfig{CatalogPath: path, Currency: "USD"})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if c.Model.Currency != types.Currency("CAD") {
		t.Errorf("catalog currency should win, got %s", c.Model.Currency)
	}
}
