package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"roofquote/core/determinism"
	"roofquote/core/types"
)

const boxWidth = 73

// CLIFormatter draws boxed tables for a terminal
type CLIFormatter struct {
	// ShowDetails adds line items and the full financing schedule per tier
	ShowDetails bool
}

// Format implements Formatter
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// Render implements Formatter
func (f *CLIFormatter) Render(w io.Writer, report *Report) error {
	p := &boxPrinter{w: w}

	if report.Tiers != nil {
		f.renderTiers(p, report.Tiers)
	}
	if report.Schedule != nil || report.Principal != nil {
		currency := report.Currency
		if report.Tiers != nil {
			currency = report.Tiers.Currency
		}
		title := "FINANCING OPTIONS"
		if report.Principal != nil {
			title += " ON " + money(*report.Principal, currency)
		}
		p.open(title)
		renderSchedule(p, report.Schedule, currency, "")
		p.close()
	}
	if report.Lead != nil {
		renderLead(p, report.Lead)
	}
	return p.err
}

func (f *CLIFormatter) renderTiers(p *boxPrinter, set *types.TierSet) {
	p.open("ROOFING PROPOSAL TIERS")
	for i, tier := range set.All() {
		if i > 0 {
			p.rule()
		}
		p.row(strings.ToUpper(tier.Tier.String())+"  "+tier.MaterialLabel, money(tier.SellingPrice, set.Currency))
		p.row(fmt.Sprintf("  %s/square, %s%% margin", money(tier.PricePerSquare, set.Currency), tier.MarginPercent), "")
		p.row(fmt.Sprintf("  Warranty: %d years %s", tier.Warranty.Years, tier.Warranty.Type), "")
		if tier.Headline != nil {
			h := tier.Headline
			p.row(fmt.Sprintf("  From %s/mo (%s, %d months)", money(h.MonthlyPayment, set.Currency), h.Lender, h.TermMonths), "")
		} else {
			p.row("  No eligible financing", "")
		}

		if f.ShowDetails {
			for _, item := range tier.Breakdown {
				p.row("  └─ "+item.Label, money(item.Amount, set.Currency))
			}
			renderSchedule(p, tier.Financing, set.Currency, "  ")
		}
	}
	p.close()
}

func renderSchedule(p *boxPrinter, options []types.FinancingOption, currency types.Currency, indent string) {
	if len(options) == 0 {
		p.row(indent+"No eligible financing", "")
		return
	}
	for _, o := range options {
		label := fmt.Sprintf("%s%s %dmo @ %s%%", indent, o.Lender, o.TermMonths, o.APRPercent)
		p.row(label, money(o.MonthlyPayment, currency)+"/mo")
	}
}

func renderLead(p *boxPrinter, lead *types.LeadScore) {
	b := lead.Breakdown
	p.open("LEAD SCORE")
	p.row("Budget", fmt.Sprintf("%d", b.Budget))
	p.row("Urgency", fmt.Sprintf("%d", b.Urgency))
	p.row("Decision maker", fmt.Sprintf("%d", b.DecisionMaker))
	p.row("Timeframe", fmt.Sprintf("%d", b.Timeframe))
	p.row("Contact details", fmt.Sprintf("%d", b.Contact))
	p.row("Lead source", fmt.Sprintf("%d", b.Source))
	p.rule()
	p.row("SCORE", fmt.Sprintf("%d / 100", lead.Score))
	p.close()
}

func money(amount decimal.Decimal, currency types.Currency) string {
	return determinism.NewMoney(amount, string(currency)).String()
}

// boxPrinter keeps the first write error so rendering code can stay linear
type boxPrinter struct {
	w   io.Writer
	err error
}

func (p *boxPrinter) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *boxPrinter) open(title string) {
	p.printf("┌%s┐\n", strings.Repeat("─", boxWidth))
	pad := boxWidth - len(title)
	if pad < 0 {
		pad = 0
	}
	p.printf("│%s%s%s│\n", strings.Repeat(" ", pad/2), title, strings.Repeat(" ", pad-pad/2))
	p.rule()
}

func (p *boxPrinter) rule() {
	p.printf("├%s┤\n", strings.Repeat("─", boxWidth))
}

func (p *boxPrinter) close() {
	p.printf("└%s┘\n", strings.Repeat("─", boxWidth))
}

func (p *boxPrinter) row(label, value string) {
	p.printf("│ %-50s %20s │\n", truncate(label, 50), value)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
