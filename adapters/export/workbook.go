// Package export writes tier comparisons as Excel workbooks for the sales
// team to share with homeowners.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"roofquote/core/types"
)

const (
	SheetTiers     = "Tiers"
	SheetBreakdown = "Breakdown"
	SheetFinancing = "Financing"
)

type styles struct {
	title  int
	header int
	label  int
	money  int
	plain  int
}

// Workbook renders a tier set into an .xlsx file and returns its bytes
func Workbook(set *types.TierSet, title string) ([]byte, error) {
	if set == nil {
		return nil, fmt.Errorf("no tiers to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetTiers); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for _, name := range []string{SheetBreakdown, SheetFinancing} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeTiers(f, st, set, title); err != nil {
		return nil, err
	}
	if err := writeBreakdown(f, st, set); err != nil {
		return nil, err
	}
	if err := writeFinancing(f, st, set); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#999999", Style: 1},
		{Type: "right", Color: "#999999", Style: 1},
		{Type: "top", Color: "#999999", Style: 1},
		{Type: "bottom", Color: "#999999", Style: 1},
	}
	st := &styles{}
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Border:    border,
		}},
		{&st.label, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: border}},
		// 4 is the built-in "#,##0.00" format
		{&st.money, &excelize.Style{Font: &excelize.Font{Size: 10}, NumFmt: 4, Border: border}},
		{&st.plain, &excelize.Style{Font: &excelize.Font{Size: 10}, Border: border}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func setMoney(f *excelize.File, sheet string, col, row int, v decimal.Decimal, style int) error {
	c := cell(col, row)
	if err := f.SetCellValue(sheet, c, v.InexactFloat64()); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, c, c, style)
}

func setText(f *excelize.File, sheet string, col, row int, v interface{}, style int) error {
	c := cell(col, row)
	if err := f.SetCellValue(sheet, c, v); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, c, c, style)
}

func writeHeader(f *excelize.File, st *styles, sheet string, row int, labels ...string) error {
	for i, l := range labels {
		if err := setText(f, sheet, i+1, row, l, st.header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

func writeTiers(f *excelize.File, st *styles, set *types.TierSet, title string) error {
	if title == "" {
		title = "Roofing options"
	}
	if err := setText(f, SheetTiers, 1, 1, title, st.title); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	if err := f.SetColWidth(SheetTiers, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetTiers, "B", "D", 22); err != nil {
		return err
	}
	if err := writeHeader(f, st, SheetTiers, 3, "", "Good", "Better", "Best"); err != nil {
		return err
	}

	rows := []struct {
		label string
		value func(types.TierPricing) interface{}
		money bool
	}{
		{"Material", func(t types.TierPricing) interface{} { return t.MaterialLabel }, false},
		{"Warranty", func(t types.TierPricing) interface{} {
			return fmt.Sprintf("%d yr %s", t.Warranty.Years, t.Warranty.Type)
		}, false},
		{"Squares", func(t types.TierPricing) interface{} { return t.Squares }, true},
		{"Margin %", func(t types.TierPricing) interface{} { return t.MarginPercent }, true},
		{"Selling price (" + string(set.Currency) + ")", func(t types.TierPricing) interface{} { return t.SellingPrice }, true},
		{"Price per square", func(t types.TierPricing) interface{} { return t.PricePerSquare }, true},
		{"From per month", func(t types.TierPricing) interface{} {
			if t.Headline == nil {
				return ""
			}
			return t.Headline.MonthlyPayment
		}, true},
	}

	for i, r := range rows {
		row := 4 + i
		if err := setText(f, SheetTiers, 1, row, r.label, st.label); err != nil {
			return err
		}
		for j, tier := range set.All() {
			v := r.value(tier)
			var err error
			if d, ok := v.(decimal.Decimal); ok && r.money {
				err = setMoney(f, SheetTiers, j+2, row, d, st.money)
			} else {
				err = setText(f, SheetTiers, j+2, row, v, st.plain)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", r.label, err)
			}
		}
	}
	return nil
}

func writeBreakdown(f *excelize.File, st *styles, set *types.TierSet) error {
	if err := f.SetColWidth(SheetBreakdown, "A", "E", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetBreakdown, "B", "B", 32); err != nil {
		return err
	}
	if err := writeHeader(f, st, SheetBreakdown, 1, "Tier", "Item", "Quantity", "Unit", "Amount"); err != nil {
		return err
	}
	row := 2
	for _, tier := range set.All() {
		for _, item := range tier.Breakdown {
			if err := setText(f, SheetBreakdown, 1, row, tier.Tier.String(), st.plain); err != nil {
				return err
			}
			if err := setText(f, SheetBreakdown, 2, row, item.Label, st.plain); err != nil {
				return err
			}
			if err := setMoney(f, SheetBreakdown, 3, row, item.Quantity, st.money); err != nil {
				return err
			}
			if err := setText(f, SheetBreakdown, 4, row, item.Unit, st.plain); err != nil {
				return err
			}
			if err := setMoney(f, SheetBreakdown, 5, row, item.Amount, st.money); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeFinancing(f *excelize.File, st *styles, set *types.TierSet) error {
	if err := f.SetColWidth(SheetFinancing, "A", "H", 16); err != nil {
		return err
	}
	if err := writeHeader(f, st, SheetFinancing, 1, "Tier", "Lender", "Term (months)", "APR %", "Principal", "Monthly", "Total paid", "Interest"); err != nil {
		return err
	}
	row := 2
	for _, tier := range set.All() {
		for _, o := range tier.Financing {
			if err := setText(f, SheetFinancing, 1, row, tier.Tier.String(), st.plain); err != nil {
				return err
			}
			if err := setText(f, SheetFinancing, 2, row, o.Lender, st.plain); err != nil {
				return err
			}
			if err := setText(f, SheetFinancing, 3, row, o.TermMonths, st.plain); err != nil {
				return err
			}
			for i, v := range []decimal.Decimal{o.APRPercent, o.Principal, o.MonthlyPayment, o.TotalPayment, o.TotalInterest} {
				if err := setMoney(f, SheetFinancing, 4+i, row, v, st.money); err != nil {
					return err
				}
			}
			row++
		}
	}
	return nil
}
