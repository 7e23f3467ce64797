package render

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"roofquote/core/types"
	"roofquote/internal/errors"
)

func sampleTier() types.TierPricing {
	price := decimal.RequireFromString("21450.75")
	return types.TierPricing{
		Tier:           types.TierBetter,
		MaterialLabel:  "Architectural shingle",
		SellingPrice:   price,
		PricePerSquare: decimal.RequireFromString("858.03"),
		Warranty:       types.Warranty{Years: 30, Type: "manufacturer"},
		Breakdown: []types.LineItem{
			{Label: "Materials", Amount: decimal.RequireFromString("9000.00")},
			{Label: "Labor", Amount: decimal.RequireFromString("6000.00")},
			{Label: "Margin", Amount: decimal.RequireFromString("6450.75")},
		},
		Financing: []types.FinancingOption{
			{Lender: "GreenSky", TermMonths: 120, APRPercent: decimal.RequireFromString("9.99"), MonthlyPayment: decimal.RequireFromString("283.35")},
		},
	}
}

func TestRenderProposalHTML(t *testing.T) {
	r := New(Options{CompanyName: "Summit Roofing", SkipPDF: true})
	out, err := r.RenderProposal(context.Background(), sampleTier(), "Tear off existing layers.\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("RenderProposal: %v", err)
	}
	if out.ID == "" {
		t.Error("expected a proposal id")
	}
	if out.PDF != nil {
		t.Error("SkipPDF should not produce a PDF")
	}

	for _, want := range []string{"Summit Roofing", "Better package", "21,450.75 USD", "GreenSky", "Tear off existing layers."} {
		if !strings.Contains(out.HTMLPreview, want) {
			t.Errorf("preview missing %q:\n%s", want, out.HTMLPreview)
		}
	}
	if strings.Contains(out.HTMLPreview, "<script>") {
		t.Error("raw HTML from the scope of work should not pass through")
	}
}

func TestRenderProposalPDF(t *testing.T) {
	dir := t.TempDir()
	r := New(Options{OutputDir: dir})
	r.now = func() time.Time { return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC) }

	out, err := r.RenderProposal(context.Background(), sampleTier(), "Install ice and water shield")
	if err != nil {
		t.Fatalf("RenderProposal: %v", err)
	}
	if !bytes.HasPrefix(out.PDF, []byte("%PDF")) {
		t.Fatalf("expected PDF bytes, got %q", out.PDF[:min(8, len(out.PDF))])
	}

	written, err := os.ReadFile(filepath.Join(dir, out.ID+".pdf"))
	if err != nil {
		t.Fatalf("expected PDF on disk: %v", err)
	}
	if !bytes.Equal(written, out.PDF) {
		t.Error("file contents differ from returned PDF")
	}
}

func TestRenderProposalRejects(t *testing.T) {
	r := New(Options{SkipPDF: true})

	if _, err := r.RenderProposal(context.Background(), types.TierPricing{Tier: "platinum"}, ""); !errors.IsType(err, errors.TypeInvalidInput) {
		t.Errorf("expected invalid input for unknown tier, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderProposal(ctx, sampleTier(), ""); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestMarkdownEscapesTableCells(t *testing.T) {
	tier := sampleTier()
	tier.Breakdown = []types.LineItem{{Label: "Skylight | flashing", Amount: decimal.NewFromInt(400)}}
	md := New(Options{}).Markdown(tier, "")
	if !strings.Contains(md, `Skylight \| flashing`) {
		t.Errorf("pipe in label not escaped:\n%s", md)
	}
	if strings.Contains(md, "Scope of work") {
		t.Error("empty scope should be omitted")
	}
}
