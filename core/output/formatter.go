// Package output provides output formatting interfaces.
// This package produces human and machine-readable quotes.
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/shopspring/decimal"

	"roofquote/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is anything the CLI prints. Only the populated sections are rendered.
type Report struct {
	// Tiers is a priced tier set
	Tiers *types.TierSet `json:"tiers,omitempty"`

	// Principal and Schedule describe a standalone financing quote
	Principal *decimal.Decimal        `json:"principal,omitempty"`
	Schedule  []types.FinancingOption `json:"schedule,omitempty"`

	// Lead is a lead score
	Lead *types.LeadScore `json:"lead,omitempty"`

	// Currency labels money columns when Tiers is nil
	Currency types.Currency `json:"currency,omitempty"`
}

// Registry maps formats to formatters
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry returns a registry holding the built-in formatters
func NewRegistry(showDetails bool) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	r.Register(&CLIFormatter{ShowDetails: showDetails})
	r.Register(&JSONFormatter{Indent: true})
	return r
}

// Register adds or replaces a formatter
func (r *Registry) Register(f Formatter) {
	r.formatters[f.Format()] = f
}

// Get returns the formatter for a format name
func (r *Registry) Get(format string) (Formatter, error) {
	f, ok := r.formatters[Format(format)]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", format, r.Formats())
	}
	return f, nil
}

// Formats lists the registered format names in order
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
