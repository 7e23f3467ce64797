package render

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"roofquote/core/types"
)

var (
	grey       = &props.Color{Red: 100, Green: 100, Blue: 100}
	labelStyle = props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Left, Color: grey}
	bodyStyle  = props.Text{Size: 9, Align: align.Left}
	amountCell = props.Text{Size: 9, Align: align.Right}
)

// pdf lays out the proposal on A4
func (r *Renderer) pdf(id string, tier types.TierPricing, scopeOfWork string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   grey,
		}).
		Build()

	m := maroto.New(cfg)

	r.addHeader(m, id, tier)
	addScope(m, scopeOfWork)
	r.addBreakdown(m, tier)
	r.addFinancing(m, tier)
	addSignature(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate proposal PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func (r *Renderer) addHeader(m core.Maroto, id string, tier types.TierPricing) {
	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(text.New(r.opts.CompanyName, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Left})),
			col.New(5).Add(text.New("PROPOSAL", props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(6).Add(
			col.New(7).Add(text.New(r.now().Format("January 2, 2006"), props.Text{Size: 8, Align: align.Left, Color: grey})),
			col.New(5).Add(text.New("Ref: "+id[:8], props.Text{Size: 8, Align: align.Right, Color: grey})),
		),
		row.New(4),
		row.New(8).Add(
			col.New(8).Add(text.New(fmt.Sprintf("%s package: %s", title(tier.Tier), tier.MaterialLabel), props.Text{Size: 11, Style: fontstyle.Bold})),
			col.New(4).Add(text.New(r.money(tier.SellingPrice), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right})),
		),
		row.New(6).Add(
			col.New(12).Add(text.New(fmt.Sprintf("%s per square | %d year %s warranty",
				r.money(tier.PricePerSquare), tier.Warranty.Years, tier.Warranty.Type), bodyStyle)),
		),
		row.New(4),
	)
}

func addScope(m core.Maroto, scopeOfWork string) {
	scopeOfWork = strings.TrimSpace(scopeOfWork)
	if scopeOfWork == "" {
		return
	}
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New("SCOPE OF WORK", labelStyle))))
	for _, line := range strings.Split(scopeOfWork, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m.AddRows(row.New(5).Add(col.New(12).Add(text.New(line, bodyStyle))))
	}
	m.AddRows(row.New(4))
}

func (r *Renderer) addBreakdown(m core.Maroto, tier types.TierPricing) {
	if len(tier.Breakdown) == 0 {
		return
	}
	m.AddRows(row.New(6).Add(col.New(12).Add(text.New("PRICE BREAKDOWN", labelStyle))))
	for _, item := range tier.Breakdown {
		m.AddRows(row.New(5).Add(
			col.New(8).Add(text.New(item.Label, bodyStyle)),
			col.New(4).Add(text.New(r.money(item.Amount), amountCell)),
		))
	}
	m.AddRows(row.New(4))
}

func (r *Renderer) addFinancing(m core.Maroto, tier types.TierPricing) {
	if len(tier.Financing) == 0 {
		return
	}
	m.AddRows(row.New(6).Add(
		col.New(5).Add(text.New("FINANCING", labelStyle)),
		col.New(2).Add(text.New("TERM", labelStyle)),
		col.New(2).Add(text.New("APR", labelStyle)),
		col.New(3).Add(text.New("MONTHLY", props.Text{Size: 7, Style: fontstyle.Bold, Align: align.Right, Color: grey})),
	))
	for _, o := range tier.Financing {
		m.AddRows(row.New(5).Add(
			col.New(5).Add(text.New(o.Lender, bodyStyle)),
			col.New(2).Add(text.New(fmt.Sprintf("%d mo", o.TermMonths), bodyStyle)),
			col.New(2).Add(text.New(o.APRPercent.String()+"%", bodyStyle)),
			col.New(3).Add(text.New(r.money(o.MonthlyPayment), amountCell)),
		))
	}
	m.AddRows(row.New(4))
}

func addSignature(m core.Maroto) {
	m.AddRows(
		row.New(16),
		row.New(5).Add(
			col.New(5).Add(text.New("______________________________", bodyStyle)),
			col.New(2),
			col.New(5).Add(text.New("______________________________", bodyStyle)),
		),
		row.New(5).Add(
			col.New(5).Add(text.New("Homeowner", labelStyle)),
			col.New(2),
			col.New(5).Add(text.New("Date", labelStyle)),
		),
	)
}
