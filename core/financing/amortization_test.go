package financing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"roofquote/core/types"
	"roofquote/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func closeTo(t *testing.T, name string, got decimal.Decimal, want float64, tolerance float64) {
	t.Helper()
	f, _ := got.Float64()
	if math.Abs(f-want) > tolerance {
		t.Fatalf("%s = %s, want %v (±%v)", name, got, want, tolerance)
	}
}

func TestMonthlyPaymentZeroInterest(t *testing.T) {
	got, err := MonthlyPayment(dec("12000"), decimal.Zero, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(dec("1000")) {
		t.Fatalf("payment = %s, want exactly 1000.00", got)
	}

	got, err = MonthlyPayment(dec("10000"), decimal.Zero, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Round(2).Equal(dec("833.33")) {
		t.Errorf("payment = %s, want 833.33 after rounding", got)
	}
}

func TestMonthlyPaymentMatchesAnnuityFormula(t *testing.T) {
	tests := []struct {
		principal float64
		apr       float64
		term      int
	}{
		{10000, 12, 12},
		{25000, 7.99, 120},
		{18450.75, 9.99, 60},
		{5000, 0.5, 36},
		{87000, 17.99, 180},
	}

	for _, tt := range tests {
		got, err := MonthlyPayment(decimal.NewFromFloat(tt.principal), decimal.NewFromFloat(tt.apr), tt.term)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r := tt.apr / 100 / 12
		g := math.Pow(1+r, float64(tt.term))
		want := tt.principal * r * g / (g - 1)
		closeTo(t, "payment", got, want, 0.005)
	}
}

func TestMonthlyPaymentKnownValue(t *testing.T) {
	got, err := MonthlyPayment(dec("10000"), dec("12"), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Round(2).Equal(dec("888.49")) {
		t.Errorf("payment = %s, want 888.49", got)
	}
}

func TestTotalRepaymentNeverBelowPrincipal(t *testing.T) {
	principals := []string{"1", "999.99", "10000", "12345.67", "100000"}
	rates := []string{"0", "0.01", "3.5", "12", "24.99"}
	terms := []int{1, 7, 12, 36, 60, 144}

	for _, p := range principals {
		for _, r := range rates {
			for _, n := range terms {
				payment, err := MonthlyPayment(dec(p), dec(r), n)
				if err != nil {
					t.Fatalf("MonthlyPayment(%s, %s, %d): %v", p, r, n, err)
				}
				total := payment.Mul(decimal.NewFromInt(int64(n)))
				if total.LessThan(dec(p)) {
					t.Errorf("MonthlyPayment(%s, %s, %d) * n = %s < principal", p, r, n, total)
				}
			}
		}
	}
}

func TestMonthlyPaymentRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		term      int
	}{
		{"negative principal", "-1", "5", 12},
		{"zero term", "1000", "5", 0},
		{"negative rate", "1000", "-0.1", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MonthlyPayment(dec(tt.principal), dec(tt.rate), tt.term)
			if !errors.IsType(err, errors.TypeInvalidInput) {
				t.Fatalf("expected invalid input error, got %v", err)
			}
		})
	}
}

func testLenders() []types.Lender {
	return []types.Lender{
		{Name: "GreenSky", APRPercent: dec("9.99"), EligibleTerms: []int{60, 120}, MinAmount: dec("5000"), MaxAmount: dec("100000")},
		{Name: "Service Finance", APRPercent: dec("0"), EligibleTerms: []int{12, 18}, MinAmount: dec("1000"), MaxAmount: dec("25000")},
		{Name: "Hearth", APRPercent: dec("7.99"), MinAmount: dec("2500"), MaxAmount: dec("50000")},
	}
}

func TestRoundedDerivesTotalsFromRoundedPayment(t *testing.T) {
	options, err := BuildSchedule(dec("10020.38"), testLenders(), []int{12, 60, 120})
	if err != nil {
		t.Fatalf("BuildSchedule: %v", err)
	}
	rounded := Rounded(options)
	if len(rounded) != len(options) {
		t.Fatalf("got %d rounded options, want %d", len(rounded), len(options))
	}
	for i, o := range rounded {
		term := decimal.NewFromInt(int64(o.TermMonths))
		if !o.MonthlyPayment.Equal(o.MonthlyPayment.Round(2)) {
			t.Errorf("%s/%d: monthly %s not in cents", o.Lender, o.TermMonths, o.MonthlyPayment)
		}
		if o.MonthlyPayment.LessThan(options[i].MonthlyPayment) {
			t.Errorf("%s/%d: rounded %s below exact %s", o.Lender, o.TermMonths, o.MonthlyPayment, options[i].MonthlyPayment)
		}
		if !o.TotalPayment.Equal(o.MonthlyPayment.Mul(term)) {
			t.Errorf("%s/%d: total %s != monthly x term", o.Lender, o.TermMonths, o.TotalPayment)
		}
		if !o.TotalInterest.Equal(o.TotalPayment.Sub(o.Principal)) {
			t.Errorf("%s/%d: interest %s != total - principal", o.Lender, o.TermMonths, o.TotalInterest)
		}
		if o.TotalPayment.LessThan(o.Principal) {
			t.Errorf("%s/%d: total %s below principal", o.Lender, o.TermMonths, o.TotalPayment)
		}
	}

	// 10020.38 / 12 = 835.0316..., which half-up rounding would drop to 835.03
	for _, o := range rounded {
		if o.Lender == "Service Finance" && o.TermMonths == 12 && !o.MonthlyPayment.Equal(dec("835.04")) {
			t.Errorf("interest-free 12 month payment = %s, want 835.04", o.MonthlyPayment)
		}
	}
}

func TestBuildScheduleExcludesOutOfRangeLender(t *testing.T) {
	lender := types.Lender{Name: "GreenSky", APRPercent: dec("9.99"), MinAmount: dec("5000"), MaxAmount: dec("100000")}

	options, err := BuildSchedule(dec("3000"), []types.Lender{lender}, []int{60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 0 {
		t.Fatalf("expected no options for out-of-range principal, got %d", len(options))
	}
}

func TestBuildScheduleEligibilityFiltering(t *testing.T) {
	lenders := testLenders()
	principals := []string{"1500", "3000", "5000", "24999.99", "25000", "30000", "75000", "100000", "150000"}

	for _, p := range principals {
		options, err := BuildSchedule(dec(p), lenders, []int{12, 60, 120})
		if err != nil {
			t.Fatalf("BuildSchedule(%s): %v", p, err)
		}

		present := map[string]bool{}
		for _, o := range options {
			present[o.Lender] = true
			if !o.Principal.Equal(dec(p)) {
				t.Errorf("option %s/%d principal = %s, want %s", o.Lender, o.TermMonths, o.Principal, p)
			}
		}
		for _, l := range lenders {
			if l.Covers(dec(p)) != present[l.Name] {
				t.Errorf("principal %s: lender %s covers=%v but present=%v", p, l.Name, l.Covers(dec(p)), present[l.Name])
			}
		}
	}
}

func TestBuildScheduleTermsAndTotals(t *testing.T) {
	options, err := BuildSchedule(dec("12000"), testLenders(), []int{120, 12, 60, 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// GreenSky offers 60 and 120, Service Finance only 12, Hearth all three
	want := []struct {
		lender string
		term   int
	}{
		{"GreenSky", 60}, {"GreenSky", 120},
		{"Service Finance", 12},
		{"Hearth", 12}, {"Hearth", 60}, {"Hearth", 120},
	}
	if len(options) != len(want) {
		t.Fatalf("got %d options, want %d: %+v", len(options), len(want), options)
	}
	for i, w := range want {
		o := options[i]
		if o.Lender != w.lender || o.TermMonths != w.term {
			t.Errorf("option %d = %s/%d, want %s/%d", i, o.Lender, o.TermMonths, w.lender, w.term)
		}
		total := o.MonthlyPayment.Mul(decimal.NewFromInt(int64(o.TermMonths)))
		if !o.TotalPayment.Equal(total) {
			t.Errorf("option %d total = %s, want %s", i, o.TotalPayment, total)
		}
		if !o.TotalInterest.Equal(total.Sub(o.Principal)) {
			t.Errorf("option %d interest = %s, want %s", i, o.TotalInterest, total.Sub(o.Principal))
		}
	}

	zero := options[2]
	if !zero.MonthlyPayment.Equal(dec("1000")) || !zero.TotalInterest.IsZero() {
		t.Errorf("interest-free option = %s/month, %s interest", zero.MonthlyPayment, zero.TotalInterest)
	}
}

func TestBuildScheduleUsesLenderTermsWhenNoneRequested(t *testing.T) {
	options, err := BuildSchedule(dec("12000"), testLenders()[:2], nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(options) != 4 {
		t.Fatalf("got %d options, want 4", len(options))
	}
}

func TestBuildScheduleNonPositivePrincipal(t *testing.T) {
	for _, p := range []string{"0", "-500"} {
		options, err := BuildSchedule(dec(p), testLenders(), []int{60})
		if err != nil {
			t.Fatalf("BuildSchedule(%s): unexpected error %v", p, err)
		}
		if len(options) != 0 {
			t.Errorf("BuildSchedule(%s) returned %d options, want none", p, len(options))
		}
	}
}

func TestBuildScheduleRejectsBadTerm(t *testing.T) {
	_, err := BuildSchedule(dec("10000"), testLenders(), []int{60, 0})
	if !errors.IsType(err, errors.TypeInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestLowestMonthlyPayment(t *testing.T) {
	if _, ok := LowestMonthlyPayment(nil); ok {
		t.Fatal("expected no headline for empty schedule")
	}

	options := []types.FinancingOption{
		{Lender: "A", TermMonths: 120, MonthlyPayment: dec("150")},
		{Lender: "B", TermMonths: 144, MonthlyPayment: dec("120")},
		{Lender: "C", TermMonths: 96, MonthlyPayment: dec("120")},
		{Lender: "D", TermMonths: 60, MonthlyPayment: dec("260")},
	}
	got, ok := LowestMonthlyPayment(options)
	if !ok {
		t.Fatal("expected a headline option")
	}
	if got.Lender != "C" {
		t.Errorf("headline = %s/%d, want C/96 (tie broken by shorter term)", got.Lender, got.TermMonths)
	}
}
