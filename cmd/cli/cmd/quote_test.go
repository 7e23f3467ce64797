package cmd

import (
	"testing"

	"github.com/shopspring/decimal"

	"roofquote/core/types"
)

func TestQuoteInputMarginFlags(t *testing.T) {
	defer func(area, good, better, best string) {
		quoteArea, quoteMarginGood, quoteMarginBetter, quoteMarginBest = area, good, better, best
	}(quoteArea, quoteMarginGood, quoteMarginBetter, quoteMarginBest)

	base := types.PricingInput{ProfitMargins: types.DefaultMargins()}
	tests := []struct {
		name               string
		good, better, best string
		want               types.Margins
	}{
		{"unset", "", "", "", types.DefaultMargins()},
		{"best only", "", "", "40", types.Margins{Good: decimal.NewFromInt(25), Better: decimal.NewFromInt(30), Best: decimal.NewFromInt(40)}},
		{"all set", "10", "20", "30", types.Margins{Good: decimal.NewFromInt(10), Better: decimal.NewFromInt(20), Best: decimal.NewFromInt(30)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quoteArea = "2500"
			quoteMarginGood, quoteMarginBetter, quoteMarginBest = tt.good, tt.better, tt.best

			in, err := quoteInput(base)
			if err != nil {
				t.Fatalf("quoteInput: %v", err)
			}
			got := in.ProfitMargins
			if !got.Good.Equal(tt.want.Good) || !got.Better.Equal(tt.want.Better) || !got.Best.Equal(tt.want.Best) {
				t.Errorf("margins = %s/%s/%s", got.Good, got.Better, got.Best)
			}
		})
	}

	quoteMarginGood = "lots"
	if _, err := quoteInput(base); err == nil {
		t.Error("expected an error for a non-numeric margin")
	}
}
