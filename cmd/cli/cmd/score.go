// Package cmd - lead scoring commands
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"roofquote/adapters/leads"
	"roofquote/adapters/storage"
	"roofquote/core/output"
	"roofquote/core/scoring"
	"roofquote/core/types"
)

var (
	scoreInputs types.LeadScoreInputs
	scoreBudget string
	scoreUrg    string
	scoreTime   string
	scoreSource string
	scoreRef    string
	scoreFormat string
	scoreSave   bool

	batchSave   bool
	batchFormat string
	batchQuiet  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single lead from 0 to 100",
	Long: `Score a lead from its qualification answers.

Budget:    under_2500, 2500_5000, 5000_10000, 10000_plus
Urgency:   immediate, urgent, moderate, planning
Timeframe: immediate, 1_month, 1_3_months, 3_6_months, 6_plus_months

Examples:
  roofquote score --budget 10000_plus --urgency immediate --decision-maker --email --phone --source referral
  roofquote score --budget 2500_5000 --lead c-1042 --save`,
	Args: cobra.NoArgs,
	RunE: runScore,
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Lead list operations",
}

var scoreBatchCmd = &cobra.Command{
	Use:   "score-batch <file.csv|file.xlsx>",
	Short: "Score every lead in a CSV or Excel file",
	Long: `Score a lead export in bulk. The first row is a header naming the columns
lead_ref, budget, urgency, decision_maker, timeframe, has_email, has_phone, source.

Examples:
  roofquote leads score-batch leads.csv
  roofquote leads score-batch leads.xlsx --save --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runScoreBatch,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(scoreBatchCmd)

	f := scoreCmd.Flags()
	f.StringVar(&scoreBudget, "budget", "", "budget range")
	f.StringVar(&scoreUrg, "urgency", "", "urgency")
	f.StringVar(&scoreTime, "timeframe", "", "decision timeframe")
	f.StringVar(&scoreSource, "source", "", "lead source (referral, website, ...)")
	f.BoolVar(&scoreInputs.DecisionMaker, "decision-maker", false, "contact is the decision maker")
	f.BoolVar(&scoreInputs.HasEmail, "email", false, "an email address is on file")
	f.BoolVar(&scoreInputs.HasPhone, "phone", false, "a phone number is on file")
	f.StringVar(&scoreRef, "lead", "", "CRM lead reference, required with --save")
	f.StringVarP(&scoreFormat, "format", "f", "cli", "output format (cli, json)")
	f.BoolVar(&scoreSave, "save", false, "record the score in the configured store")

	bf := scoreBatchCmd.Flags()
	bf.BoolVar(&batchSave, "save", false, "record each score in the configured store")
	bf.StringVarP(&batchFormat, "format", "f", "cli", "output format (cli, json)")
	bf.BoolVarP(&batchQuiet, "quiet", "q", false, "hide the progress bar")
}

func newScorer() (*scoring.Scorer, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(cat.Weights)
}

func runScore(cmd *cobra.Command, args []string) error {
	scorer, err := newScorer()
	if err != nil {
		return err
	}

	in := scoreInputs
	in.Budget = types.BudgetRange(scoreBudget)
	in.Urgency = types.Urgency(scoreUrg)
	in.Timeframe = types.Timeframe(scoreTime)
	in.Source = types.LeadSource(scoreSource)

	score, err := scorer.Score(in)
	if err != nil {
		return err
	}
	if err := printReport(scoreFormat, true, &output.Report{Lead: &score}); err != nil {
		return err
	}

	if !scoreSave {
		return nil
	}
	if scoreRef == "" {
		return fmt.Errorf("--save needs --lead")
	}
	ctx := context.Background()
	store, err := requireStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rec := &types.LeadRecord{LeadRef: scoreRef, Inputs: in, Score: score}
	if err := store.SaveLeadRecord(ctx, rec); err != nil {
		return fmt.Errorf("failed to save lead score: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Saved lead score %s\n", rec.ID)
	return nil
}

func requireStore(ctx context.Context) (storage.Store, error) {
	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("--save needs a storage backend; it is set to none")
	}
	return store, nil
}

func runScoreBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	scorer, err := newScorer()
	if err != nil {
		return err
	}
	rows, rowErrs, err := leads.Read(args[0])
	if err != nil {
		return err
	}

	opts := leads.Options{}
	if batchSave {
		store, err := requireStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Recorder = store
	}
	if !batchQuiet && batchFormat != "json" {
		bar := progressbar.Default(int64(len(rows)), "scoring")
		opts.Progress = func() { _ = bar.Add(1) }
	}

	results, scoreErrs, err := leads.Score(ctx, scorer, rows, opts)
	if err != nil {
		return err
	}
	rowErrs = append(rowErrs, scoreErrs...)

	if batchFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"results": results,
			"errors":  rowErrs,
		})
	}

	fmt.Println()
	fmt.Printf("%-8s %-24s %6s\n", "LINE", "LEAD", "SCORE")
	for _, r := range results {
		fmt.Printf("%-8d %-24s %6d\n", r.Line, r.LeadRef, r.Score.Score)
	}
	if len(rowErrs) > 0 {
		fmt.Printf("\n%d rows skipped:\n", len(rowErrs))
		for _, e := range rowErrs {
			fmt.Printf("  %s\n", e.Error())
		}
	}
	return nil
}
