package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"roofquote/core/pricing"
	"roofquote/core/types"
)

func pricedSet(t *testing.T) types.TierSet {
	t.Helper()
	calc, err := pricing.NewCalculator(pricing.DefaultCostModel())
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	set, err := calc.CalculateTiers(types.PricingInput{
		RoofArea:           decimal.NewFromInt(2500),
		Pitch:              types.Pitch6,
		Complexity:         types.ComplexityModerate,
		Stories:            1,
		WastePercentage:    decimal.NewFromInt(10),
		OverheadPercentage: decimal.NewFromInt(15),
		ProfitMargins:      types.DefaultMargins(),
	})
	if err != nil {
		t.Fatalf("CalculateTiers: %v", err)
	}
	return set
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(false)
	if got := r.Formats(); len(got) != 2 || got[0] != "cli" || got[1] != "json" {
		t.Fatalf("formats = %v", got)
	}
	if _, err := r.Get("html"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestCLIFormatterTiers(t *testing.T) {
	set := pricedSet(t)
	var buf bytes.Buffer
	f := &CLIFormatter{ShowDetails: true}
	if err := f.Render(&buf, &Report{Tiers: &set}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"ROOFING PROPOSAL TIERS",
		"GOOD  3-Tab Asphalt Shingles",
		"BETTER  Architectural Shingles",
		"Warranty: 50 years lifetime system",
		money(set.Best.SellingPrice, set.Currency),
		"Labor",
		"/mo",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLIFormatterEmptySchedule(t *testing.T) {
	principal := decimal.NewFromInt(500)
	var buf bytes.Buffer
	err := (&CLIFormatter{}).Render(&buf, &Report{Principal: &principal, Schedule: []types.FinancingOption{}, Currency: types.CurrencyUSD})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "No eligible financing") {
		t.Errorf("expected empty schedule notice:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "500.00 USD") {
		t.Errorf("expected principal in title:\n%s", buf.String())
	}
}

func TestCLIFormatterLead(t *testing.T) {
	var buf bytes.Buffer
	lead := types.LeadScore{Score: 55, Breakdown: types.ScoreBreakdown{Budget: 25, Urgency: 20, Contact: 10}}
	if err := (&CLIFormatter{}).Render(&buf, &Report{Lead: &lead}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "55 / 100") {
		t.Errorf("score line missing:\n%s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	set := pricedSet(t)
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Render(&buf, &Report{Tiers: &set}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded struct {
		Tiers struct {
			Better struct {
				SellingPrice string `json:"selling_price"`
			} `json:"better"`
		} `json:"tiers"`
		Lead *json.RawMessage `json:"lead"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Tiers.Better.SellingPrice != set.Better.SellingPrice.String() {
		t.Errorf("better price = %q, want %q", decoded.Tiers.Better.SellingPrice, set.Better.SellingPrice)
	}
	if decoded.Lead != nil {
		t.Error("empty sections should be omitted")
	}
}
