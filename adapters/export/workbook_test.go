package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"roofquote/core/types"
)

func sampleSet() *types.TierSet {
	tier := func(name types.TierName, label, price string) types.TierPricing {
		monthly := decimal.RequireFromString("199.99")
		return types.TierPricing{
			Tier:          name,
			MaterialLabel: label,
			SellingPrice:  decimal.RequireFromString(price),
			Breakdown:     []types.LineItem{{Label: "Materials", Amount: decimal.NewFromInt(5000)}},
			Financing: []types.FinancingOption{{
				Lender: "Service Finance", TermMonths: 60, MonthlyPayment: monthly,
			}},
			Headline: &types.FinancingOption{Lender: "Service Finance", TermMonths: 60, MonthlyPayment: monthly},
		}
	}
	return &types.TierSet{
		Currency: types.CurrencyUSD,
		Good:     tier(types.TierGood, "3-tab shingle", "15000"),
		Better:   tier(types.TierBetter, "Architectural shingle", "21450.75"),
		Best:     tier(types.TierBest, "Designer shingle", "30000"),
	}
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sampleSet(), "Smith residence")
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 3 || sheets[0] != SheetTiers {
		t.Fatalf("sheets = %v", sheets)
	}

	checks := map[string]string{
		"A1": "Smith residence",
		"C3": "Better",
		"C4": "Architectural shingle",
		"C8": "21,450.75",
	}
	for c, want := range checks {
		if got, _ := f.GetCellValue(SheetTiers, c); got != want {
			t.Errorf("%s = %q, want %q", c, got, want)
		}
	}

	rows, err := f.GetRows(SheetFinancing)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Errorf("financing rows = %d, want header + 3", len(rows))
	}
	rows, _ = f.GetRows(SheetBreakdown)
	if len(rows) != 4 {
		t.Errorf("breakdown rows = %d, want header + 3", len(rows))
	}
}

func TestWorkbookNil(t *testing.T) {
	if _, err := Workbook(nil, ""); err == nil {
		t.Error("expected error for nil tier set")
	}
}
