// Package cmd - quote command
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roofquote/adapters/export"
	"roofquote/adapters/render"
	"roofquote/core/output"
	"roofquote/core/pricing"
	"roofquote/core/types"
	"roofquote/internal/config"
	"roofquote/internal/logging"
)

var (
	quoteArea         string
	quotePitch        string
	quoteComplexity   string
	quoteStories      int
	quoteWaste        string
	quoteOverhead     string
	quoteMarginGood   string
	quoteMarginBetter string
	quoteMarginBest   string
	quoteFormat       string
	quoteDetails      bool
	quoteXLSX         string
	quoteProposalTier string
	quoteScopeFile    string
	quoteOutDir       string
	quoteCompany      string
	quoteSave         bool
	quoteSession      string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a roof at the good, better and best tiers",
	Long: `Price one job at all three tiers, each with its financing options.

Examples:
  roofquote quote --area 2500 --pitch 6/12 --complexity moderate
  roofquote quote --area 1800 --pitch 8/12 --stories 2 --format json
  roofquote quote --area 2500 --xlsx options.xlsx
  roofquote quote --area 2500 --proposal better --scope scope.md --out ./proposals`,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	f := quoteCmd.Flags()
	f.StringVar(&quoteArea, "area", "", "roof area in square feet [REQUIRED]")
	f.StringVar(&quotePitch, "pitch", string(types.Pitch6), "roof pitch, 4/12 through 12/12")
	f.StringVar(&quoteComplexity, "complexity", string(types.ComplexityModerate), "simple, moderate or complex")
	f.IntVar(&quoteStories, "stories", 1, "building height in stories")
	f.StringVar(&quoteWaste, "waste", "10", "material waste percentage")
	f.StringVar(&quoteOverhead, "overhead", "15", "overhead percentage")
	f.StringVar(&quoteMarginGood, "margin-good", "", "good tier revenue margin percentage (catalog default when unset)")
	f.StringVar(&quoteMarginBetter, "margin-better", "", "better tier revenue margin percentage (catalog default when unset)")
	f.StringVar(&quoteMarginBest, "margin-best", "", "best tier revenue margin percentage (catalog default when unset)")
	f.StringVarP(&quoteFormat, "format", "f", "cli", "output format (cli, json)")
	f.BoolVarP(&quoteDetails, "details", "d", false, "show breakdown and every financing option")
	f.StringVar(&quoteXLSX, "xlsx", "", "also write a tier comparison workbook to this path")
	f.StringVar(&quoteProposalTier, "proposal", "", "render a proposal PDF for this tier")
	f.StringVar(&quoteScopeFile, "scope", "", "markdown file with the scope of work")
	f.StringVar(&quoteOutDir, "out", ".", "directory for rendered proposals")
	f.StringVar(&quoteCompany, "company", "", "company name printed on proposals")
	f.BoolVar(&quoteSave, "save", false, "record the pricing run in the configured store")
	f.StringVar(&quoteSession, "session", "", "session id to record the run under")
	_ = quoteCmd.MarkFlagRequired("area")
}

func parseDecimalFlag(name, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("--%s: %q is not a number", name, v)
	}
	return d, nil
}

// quoteInput fills base from the flags. Margin flags left empty keep base's
// margins.
func quoteInput(base types.PricingInput) (types.PricingInput, error) {
	in := base
	in.Pitch = types.Pitch(quotePitch)
	in.Complexity = types.Complexity(quoteComplexity)
	in.Stories = quoteStories
	for _, f := range []struct {
		name string
		src  string
		dst  *decimal.Decimal
	}{
		{"area", quoteArea, &in.RoofArea},
		{"waste", quoteWaste, &in.WastePercentage},
		{"overhead", quoteOverhead, &in.OverheadPercentage},
		{"margin-good", quoteMarginGood, &in.ProfitMargins.Good},
		{"margin-better", quoteMarginBetter, &in.ProfitMargins.Better},
		{"margin-best", quoteMarginBest, &in.ProfitMargins.Best},
	} {
		if f.src == "" && strings.HasPrefix(f.name, "margin-") {
			continue
		}
		v, err := parseDecimalFlag(f.name, f.src)
		if err != nil {
			return types.PricingInput{}, err
		}
		*f.dst = v
	}
	return in, nil
}

func runQuote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	calc, err := pricing.NewCalculator(cat.Model)
	if err != nil {
		return err
	}

	raw, err := quoteInput(calc.Defaults())
	if err != nil {
		return err
	}
	in, err := calc.NewInput(raw)
	if err != nil {
		return err
	}
	set, err := calc.CalculateTiers(in)
	if err != nil {
		return err
	}
	logging.Named(logging.ComponentCLI).Debug("priced job",
		zap.String("area", in.RoofArea.String()),
		zap.String("catalog", cat.Source),
		zap.Duration("duration", time.Since(start)))

	if err := printReport(quoteFormat, quoteDetails, &output.Report{Tiers: &set}); err != nil {
		return err
	}

	if quoteSave {
		if err := saveRun(ctx, in, set); err != nil {
			return err
		}
	}
	if quoteXLSX != "" {
		if err := writeWorkbook(&set, quoteXLSX); err != nil {
			return err
		}
	}
	if quoteProposalTier != "" {
		if err := renderProposal(ctx, set, cat.Model.Currency); err != nil {
			return err
		}
	}
	return nil
}

func saveRun(ctx context.Context, in types.PricingInput, set types.TierSet) error {
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("--save needs a storage backend; it is set to none")
	}
	defer store.Close()

	run := &types.PricingRun{SessionID: quoteSession, Input: in, Tiers: set}
	if err := store.SavePricingRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save pricing run: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved pricing run %s\n", run.ID)
	return nil
}

func writeWorkbook(set *types.TierSet, path string) error {
	data, err := export.Workbook(set, "")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

func renderProposal(ctx context.Context, set types.TierSet, currency types.Currency) error {
	tier, ok := set.Get(types.TierName(quoteProposalTier))
	if !ok {
		return fmt.Errorf("--proposal: unknown tier %q (use good, better or best)", quoteProposalTier)
	}

	var scope string
	if quoteScopeFile != "" {
		data, err := os.ReadFile(quoteScopeFile)
		if err != nil {
			return fmt.Errorf("failed to read scope of work: %w", err)
		}
		scope = string(data)
	}

	company := quoteCompany
	if company == "" {
		company = config.Get().Proposals.CompanyName
	}
	r := render.New(render.Options{CompanyName: company, Currency: currency, OutputDir: quoteOutDir})
	doc, err := r.RenderProposal(ctx, tier, scope)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", filepath.Join(quoteOutDir, doc.ID+".pdf"))
	return nil
}
