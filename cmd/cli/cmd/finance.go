// Package cmd - finance command
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"roofquote/core/financing"
	"roofquote/core/output"
)

var (
	financeTerms  string
	financeFormat string
)

var financeCmd = &cobra.Command{
	Use:   "finance <principal>",
	Short: "List monthly payments for an amount across the lender panel",
	Long: `Quote every eligible lender and term for a principal.

Examples:
  roofquote finance 18500
  roofquote finance 18500 --terms 60,120 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runFinance,
}

func init() {
	rootCmd.AddCommand(financeCmd)
	financeCmd.Flags().StringVar(&financeTerms, "terms", "", "comma separated terms in months (default: catalog terms)")
	financeCmd.Flags().StringVarP(&financeFormat, "format", "f", "cli", "output format (cli, json)")
}

func parseTerms(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var terms []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("--terms: %q is not a whole number of months", part)
		}
		terms = append(terms, n)
	}
	return terms, nil
}

func runFinance(cmd *cobra.Command, args []string) error {
	principal, err := parseDecimalFlag("principal", args[0])
	if err != nil {
		return err
	}
	terms, err := parseTerms(financeTerms)
	if err != nil {
		return err
	}

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	if terms == nil {
		terms = cat.Model.Terms
	}

	options, err := financing.BuildSchedule(principal, cat.Model.Lenders, terms)
	if err != nil {
		return err
	}
	return printReport(financeFormat, true, &output.Report{
		Principal: &principal,
		Schedule:  financing.Rounded(options),
		Currency:  cat.Model.Currency,
	})
}
