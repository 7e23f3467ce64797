// Package catalog loads the pricing catalog from an HCL file.
//
// A catalog overrides the built-in cost model and lead score weights. Every
// block is optional; a table that appears in the file replaces the built-in
// table wholesale rather than merging entry by entry.
//
//	currency = "USD"
//	rounding = "cent"
//
//	rates {
//	  material_per_square = 135
//	  labor_per_square    = 85
//	  extra_story_step    = 0.15
//	}
//
//	margins {
//	  good   = 25
//	  better = 30
//	  best   = 35
//	}
//
//	pitch "8/12" { multiplier = 1.2 }
//	story "2"    { multiplier = 1.1 }
//
//	tier "best" {
//	  material            = "Designer Shingles"
//	  material_multiplier = 1.45
//	  warranty_years      = 50
//	  warranty_type       = "lifetime system"
//	}
//
//	lender "GreenSky" {
//	  apr        = 7.99
//	  terms      = [60, 84, 120]
//	  min_amount = 5000
//	  max_amount = 100000
//	}
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"roofquote/core/determinism"
	"roofquote/core/pricing"
	"roofquote/core/scoring"
	"roofquote/core/types"
	"roofquote/internal/config"
	"roofquote/internal/errors"
)

// Catalog is a fully resolved pricing configuration
type Catalog struct {
	Model   pricing.CostModel
	Weights scoring.Weights

	// Source is the file the catalog was read from, empty for the built-in one
	Source string
}

// Default returns the built-in catalog
func Default() *Catalog {
	return &Catalog{
		Model:   pricing.DefaultCostModel(),
		Weights: scoring.DefaultWeights(),
	}
}

// Load reads and validates a catalog file. An empty path yields the built-in
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("failed to read pricing catalog", err).WithContext("path", path)
	}
	c, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	c.Source = path
	return c, nil
}

// FromConfig resolves the catalog named by the pricing config. Currency and
// rounding from the config apply to the built-in catalog only; a catalog file
// is authoritative for both.
func FromConfig(cfg config.PricingConfig) (*Catalog, error) {
	if cfg.CatalogPath != "" {
		return Load(cfg.CatalogPath)
	}
	c := Default()
	if cfg.Currency != "" {
		c.Model.Currency = types.Currency(strings.ToUpper(string(cfg.Currency)))
	}
	policy, err := determinism.ParseRoundingPolicy(cfg.Rounding)
	if err != nil {
		return nil, errors.Config("invalid rounding policy", err)
	}
	c.Model.Rounding = policy
	return c, nil
}

// Parse decodes catalog source on top of the built-in defaults
func Parse(src []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(diags)
	}

	var f catalogFile
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, diagError(diags)
	}

	c := Default()
	if err := f.apply(c); err != nil {
		return nil, err
	}
	if err := c.Model.Validate(); err != nil {
		return nil, err
	}
	if err := c.Weights.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func diagError(diags hcl.Diagnostics) error {
	var msgs []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		if d.Subject != nil {
			msg = fmt.Sprintf("%s:%d: %s", d.Subject.Filename, d.Subject.Start.Line, msg)
		}
		msgs = append(msgs, msg)
	}
	return errors.Config("invalid pricing catalog", fmt.Errorf("%s", strings.Join(msgs, "; ")))
}

// Numbers are decoded as strings so they reach decimal without a float hop.

type catalogFile struct {
	Currency   *string           `hcl:"currency,optional"`
	Rounding   *string           `hcl:"rounding,optional"`
	Rates      *ratesBlock       `hcl:"rates,block"`
	Pitches    []multiplierBlock `hcl:"pitch,block"`
	Complexity []multiplierBlock `hcl:"complexity,block"`
	Stories    []multiplierBlock `hcl:"story,block"`
	Tiers      []tierBlock       `hcl:"tier,block"`
	Bounds     *boundsBlock      `hcl:"bounds,block"`
	Margins    *marginsBlock     `hcl:"margins,block"`
	Lenders    []lenderBlock     `hcl:"lender,block"`
	Financing  *financingBlock   `hcl:"financing,block"`
	Scoring    *scoringBlock     `hcl:"scoring,block"`
}

type ratesBlock struct {
	MaterialPerSquare *string `hcl:"material_per_square,optional"`
	LaborPerSquare    *string `hcl:"labor_per_square,optional"`
	ExtraStoryStep    *string `hcl:"extra_story_step,optional"`
}

type multiplierBlock struct {
	Key        string `hcl:"key,label"`
	Multiplier string `hcl:"multiplier"`
}

type tierBlock struct {
	Name               string `hcl:"name,label"`
	Material           string `hcl:"material"`
	MaterialMultiplier string `hcl:"material_multiplier"`
	WarrantyYears      int    `hcl:"warranty_years"`
	WarrantyType       string `hcl:"warranty_type"`
}

type boundsBlock struct {
	Waste    []string `hcl:"waste,optional"`
	Overhead []string `hcl:"overhead,optional"`
	Margin   []string `hcl:"margin,optional"`
}

type marginsBlock struct {
	Good   *string `hcl:"good,optional"`
	Better *string `hcl:"better,optional"`
	Best   *string `hcl:"best,optional"`
}

type lenderBlock struct {
	Name      string `hcl:"name,label"`
	APR       string `hcl:"apr"`
	Terms     []int  `hcl:"terms,optional"`
	MinAmount string `hcl:"min_amount"`
	MaxAmount string `hcl:"max_amount"`
}

type financingBlock struct {
	Terms []int `hcl:"terms"`
}

type scoringBlock struct {
	Budget             map[string]int `hcl:"budget,optional"`
	Urgency            map[string]int `hcl:"urgency,optional"`
	Timeframe          map[string]int `hcl:"timeframe,optional"`
	DecisionMaker      *int           `hcl:"decision_maker,optional"`
	ContactComplete    *int           `hcl:"contact_complete,optional"`
	HighQualitySource  *int           `hcl:"high_quality_source,optional"`
	HighQualitySources []string       `hcl:"high_quality_sources,optional"`
	Caps               *capsBlock     `hcl:"caps,block"`
}

type capsBlock struct {
	Budget        int `hcl:"budget"`
	Urgency       int `hcl:"urgency"`
	DecisionMaker int `hcl:"decision_maker"`
	Timeframe     int `hcl:"timeframe"`
	Contact       int `hcl:"contact"`
	Source        int `hcl:"source"`
}

func (f *catalogFile) apply(c *Catalog) error {
	m := &c.Model

	if f.Currency != nil {
		m.Currency = types.Currency(strings.ToUpper(*f.Currency))
	}
	if f.Rounding != nil {
		policy, err := determinism.ParseRoundingPolicy(*f.Rounding)
		if err != nil {
			return errors.Config("invalid rounding policy", err)
		}
		m.Rounding = policy
	}

	if r := f.Rates; r != nil {
		for _, field := range []struct {
			name string
			src  *string
			dst  *decimal.Decimal
		}{
			{"material_per_square", r.MaterialPerSquare, &m.MaterialCostPerSquare},
			{"labor_per_square", r.LaborPerSquare, &m.LaborCostPerSquare},
			{"extra_story_step", r.ExtraStoryStep, &m.ExtraStoryStep},
		} {
			if field.src == nil {
				continue
			}
			v, err := parseDecimal(field.name, *field.src)
			if err != nil {
				return err
			}
			*field.dst = v
		}
	}

	if len(f.Pitches) > 0 {
		m.PitchMultipliers = make(map[types.Pitch]decimal.Decimal, len(f.Pitches))
		for _, b := range f.Pitches {
			v, err := parseDecimal("pitch "+b.Key, b.Multiplier)
			if err != nil {
				return err
			}
			m.PitchMultipliers[types.Pitch(b.Key)] = v
		}
	}
	if len(f.Complexity) > 0 {
		m.ComplexityMultipliers = make(map[types.Complexity]decimal.Decimal, len(f.Complexity))
		for _, b := range f.Complexity {
			v, err := parseDecimal("complexity "+b.Key, b.Multiplier)
			if err != nil {
				return err
			}
			m.ComplexityMultipliers[types.Complexity(b.Key)] = v
		}
	}
	if len(f.Stories) > 0 {
		m.StoryMultipliers = make(map[int]decimal.Decimal, len(f.Stories))
		for _, b := range f.Stories {
			stories, err := strconv.Atoi(b.Key)
			if err != nil {
				return errors.Newf(errors.TypeConfig, "story label %q is not a number", b.Key)
			}
			v, err := parseDecimal("story "+b.Key, b.Multiplier)
			if err != nil {
				return err
			}
			m.StoryMultipliers[stories] = v
		}
	}

	for _, b := range f.Tiers {
		name := types.TierName(b.Name)
		if !name.IsValid() {
			return errors.Newf(errors.TypeConfig, "unknown tier %q", b.Name)
		}
		mult, err := parseDecimal("tier "+b.Name+" material_multiplier", b.MaterialMultiplier)
		if err != nil {
			return err
		}
		m.Tiers[name] = pricing.TierConfig{
			MaterialLabel:      b.Material,
			MaterialMultiplier: mult,
			Warranty:           types.Warranty{Years: b.WarrantyYears, Type: b.WarrantyType},
		}
	}

	if b := f.Bounds; b != nil {
		for _, field := range []struct {
			name string
			src  []string
			dst  *pricing.PercentBounds
		}{
			{"waste", b.Waste, &m.Bounds.Waste},
			{"overhead", b.Overhead, &m.Bounds.Overhead},
			{"margin", b.Margin, &m.Bounds.Margin},
		} {
			if field.src == nil {
				continue
			}
			pb, err := parseBounds(field.name, field.src)
			if err != nil {
				return err
			}
			*field.dst = pb
		}
	}

	if mb := f.Margins; mb != nil {
		for _, field := range []struct {
			name string
			src  *string
			dst  *decimal.Decimal
		}{
			{"good", mb.Good, &m.DefaultMargins.Good},
			{"better", mb.Better, &m.DefaultMargins.Better},
			{"best", mb.Best, &m.DefaultMargins.Best},
		} {
			if field.src == nil {
				continue
			}
			v, err := parseDecimal("margins "+field.name, *field.src)
			if err != nil {
				return err
			}
			*field.dst = v
		}
	}

	if len(f.Lenders) > 0 {
		m.Lenders = make([]types.Lender, 0, len(f.Lenders))
		for _, b := range f.Lenders {
			l, err := b.lender()
			if err != nil {
				return err
			}
			m.Lenders = append(m.Lenders, l)
		}
	}
	if f.Financing != nil {
		m.Terms = f.Financing.Terms
	}

	if f.Scoring != nil {
		f.Scoring.apply(&c.Weights)
	}
	return nil
}

func (b lenderBlock) lender() (types.Lender, error) {
	apr, err := parseDecimal("lender "+b.Name+" apr", b.APR)
	if err != nil {
		return types.Lender{}, err
	}
	lo, err := parseDecimal("lender "+b.Name+" min_amount", b.MinAmount)
	if err != nil {
		return types.Lender{}, err
	}
	hi, err := parseDecimal("lender "+b.Name+" max_amount", b.MaxAmount)
	if err != nil {
		return types.Lender{}, err
	}
	return types.Lender{Name: b.Name, APRPercent: apr, EligibleTerms: b.Terms, MinAmount: lo, MaxAmount: hi}, nil
}

func (s *scoringBlock) apply(w *scoring.Weights) {
	if s.Budget != nil {
		w.Budget = make(map[types.BudgetRange]int, len(s.Budget))
		for k, v := range s.Budget {
			w.Budget[types.BudgetRange(k)] = v
		}
	}
	if s.Urgency != nil {
		w.Urgency = make(map[types.Urgency]int, len(s.Urgency))
		for k, v := range s.Urgency {
			w.Urgency[types.Urgency(k)] = v
		}
	}
	if s.Timeframe != nil {
		w.Timeframe = make(map[types.Timeframe]int, len(s.Timeframe))
		for k, v := range s.Timeframe {
			w.Timeframe[types.Timeframe(k)] = v
		}
	}
	if s.DecisionMaker != nil {
		w.DecisionMaker = *s.DecisionMaker
	}
	if s.ContactComplete != nil {
		w.ContactComplete = *s.ContactComplete
	}
	if s.HighQualitySource != nil {
		w.HighQualitySource = *s.HighQualitySource
	}
	if s.HighQualitySources != nil {
		w.HighQualitySources = make([]types.LeadSource, 0, len(s.HighQualitySources))
		for _, src := range s.HighQualitySources {
			w.HighQualitySources = append(w.HighQualitySources, types.LeadSource(src))
		}
	}
	if c := s.Caps; c != nil {
		w.Caps = scoring.Caps{
			Budget:        c.Budget,
			Urgency:       c.Urgency,
			DecisionMaker: c.DecisionMaker,
			Timeframe:     c.Timeframe,
			Contact:       c.Contact,
			Source:        c.Source,
		}
	}
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.Config(field+" is not a number", err).WithContext("value", s)
	}
	return v, nil
}

func parseBounds(field string, src []string) (pricing.PercentBounds, error) {
	if len(src) != 2 {
		return pricing.PercentBounds{}, errors.Newf(errors.TypeConfig, "%s bounds need exactly [min, max]", field)
	}
	lo, err := parseDecimal(field+" min", src[0])
	if err != nil {
		return pricing.PercentBounds{}, err
	}
	hi, err := parseDecimal(field+" max", src[1])
	if err != nil {
		return pricing.PercentBounds{}, err
	}
	return pricing.PercentBounds{Min: lo, Max: hi}, nil
}
