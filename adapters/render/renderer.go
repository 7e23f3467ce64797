// Package render is the reference proposal renderer. It turns a priced tier
// and a markdown scope of work into an HTML preview and a PDF.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"roofquote/core/determinism"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// Options configures a Renderer
type Options struct {
	// CompanyName heads every proposal
	CompanyName string

	// Currency labels money amounts
	Currency types.Currency

	// OutputDir, when set, receives <proposal id>.pdf
	OutputDir string

	// SkipPDF renders the HTML preview only
	SkipPDF bool
}

// Renderer produces proposal documents
type Renderer struct {
	opts Options
	md   goldmark.Markdown
	now  func() time.Time
}

// New creates a renderer
func New(opts Options) *Renderer {
	if opts.CompanyName == "" {
		opts.CompanyName = "Roofing Proposal"
	}
	if opts.Currency == "" {
		opts.Currency = types.CurrencyUSD
	}
	return &Renderer{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		now: time.Now,
	}
}

// RenderProposal implements the workflow's Renderer
func (r *Renderer) RenderProposal(ctx context.Context, tier types.TierPricing, scopeOfWork string) (types.RenderedProposal, error) {
	if err := ctx.Err(); err != nil {
		return types.RenderedProposal{}, err
	}
	if !tier.Tier.IsValid() {
		return types.RenderedProposal{}, errors.InvalidInput("cannot render unknown tier %q", tier.Tier)
	}

	id := uuid.New().String()
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(r.Markdown(tier, scopeOfWork)), &buf); err != nil {
		return types.RenderedProposal{}, fmt.Errorf("failed to render proposal markdown: %w", err)
	}
	out := types.RenderedProposal{ID: id, HTMLPreview: buf.String()}

	if r.opts.SkipPDF {
		return out, nil
	}
	pdf, err := r.pdf(id, tier, scopeOfWork)
	if err != nil {
		return types.RenderedProposal{}, err
	}
	out.PDF = pdf

	if r.opts.OutputDir != "" {
		if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
			return types.RenderedProposal{}, fmt.Errorf("failed to create proposal directory: %w", err)
		}
		if err := os.WriteFile(filepath.Join(r.opts.OutputDir, id+".pdf"), pdf, 0644); err != nil {
			return types.RenderedProposal{}, fmt.Errorf("failed to write proposal PDF: %w", err)
		}
	}
	return out, nil
}

// Markdown is the proposal body before conversion. Raw HTML in the scope of
// work is not passed through by the converter.
func (r *Renderer) Markdown(tier types.TierPricing, scopeOfWork string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.opts.CompanyName)
	fmt.Fprintf(&b, "## %s package: %s\n\n", title(tier.Tier), tier.MaterialLabel)
	fmt.Fprintf(&b, "**Investment:** %s  \n", r.money(tier.SellingPrice))
	fmt.Fprintf(&b, "**Price per square:** %s  \n", r.money(tier.PricePerSquare))
	fmt.Fprintf(&b, "**Warranty:** %d years, %s\n\n", tier.Warranty.Years, tier.Warranty.Type)

	if strings.TrimSpace(scopeOfWork) != "" {
		b.WriteString("### Scope of work\n\n")
		b.WriteString(strings.TrimSpace(scopeOfWork))
		b.WriteString("\n\n")
	}

	if len(tier.Breakdown) > 0 {
		b.WriteString("### Price breakdown\n\n| Item | Amount |\n|---|---:|\n")
		for _, item := range tier.Breakdown {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(item.Label), r.money(item.Amount))
		}
		b.WriteString("\n")
	}

	if len(tier.Financing) > 0 {
		b.WriteString("### Financing options\n\n| Lender | Term | APR | Monthly |\n|---|---:|---:|---:|\n")
		for _, o := range tier.Financing {
			fmt.Fprintf(&b, "| %s | %d months | %s%% | %s |\n", escapeCell(o.Lender), o.TermMonths, o.APRPercent, r.money(o.MonthlyPayment))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) money(amount decimal.Decimal) string {
	return determinism.NewMoney(amount, string(r.opts.Currency)).String()
}

func title(t types.TierName) string {
	s := t.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
