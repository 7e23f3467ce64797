// Package scoring derives a bounded lead score from qualification signals.
// The score is a projection of its inputs and is recomputed from scratch on
// every call; no previous score is ever consulted.
package scoring

import (
	"roofquote/core/types"
	"roofquote/internal/errors"
)

// MaxScore is the upper clamp of every lead score
const MaxScore = 100

// Caps bound each contribution before the contributions are summed
type Caps struct {
	Budget        int `json:"budget"`
	Urgency       int `json:"urgency"`
	DecisionMaker int `json:"decision_maker"`
	Timeframe     int `json:"timeframe"`
	Contact       int `json:"contact"`
	Source        int `json:"source"`
}

// Weights is the point table for every signal
type Weights struct {
	Budget    map[types.BudgetRange]int `json:"budget"`
	Urgency   map[types.Urgency]int     `json:"urgency"`
	Timeframe map[types.Timeframe]int   `json:"timeframe"`

	// DecisionMaker is awarded when the contact can sign
	DecisionMaker int `json:"decision_maker"`

	// ContactComplete is awarded only when both email and phone are present
	ContactComplete int `json:"contact_complete"`

	// HighQualitySource is awarded when the source is in HighQualitySources
	HighQualitySource  int                `json:"high_quality_source"`
	HighQualitySources []types.LeadSource `json:"high_quality_sources"`

	Caps Caps `json:"caps"`
}

// DefaultWeights returns the built-in point table. A lead maximizing every
// signal scores exactly 100.
func DefaultWeights() Weights {
	return Weights{
		Budget: map[types.BudgetRange]int{
			types.Budget10000Plus:   25,
			types.Budget5000To10000: 18,
			types.Budget2500To5000:  12,
			types.BudgetUnder2500:   6,
		},
		Urgency: map[types.Urgency]int{
			types.UrgencyImmediate: 20,
			types.UrgencyUrgent:    15,
			types.UrgencyModerate:  10,
			types.UrgencyPlanning:  5,
		},
		Timeframe: map[types.Timeframe]int{
			types.TimeframeImmediate:  15,
			types.TimeframeOneMonth:   10,
			types.TimeframeOneToThree: 5,
			types.TimeframeThreeToSix: 0,
			types.TimeframeSixPlus:    0,
		},
		DecisionMaker:      15,
		ContactComplete:    10,
		HighQualitySource:  15,
		HighQualitySources: []types.LeadSource{types.SourceReferral, types.SourceWebsite},
		Caps: Caps{
			Budget:        25,
			Urgency:       20,
			DecisionMaker: 15,
			Timeframe:     15,
			Contact:       10,
			Source:        15,
		},
	}
}

// Validate rejects negative points and unknown bucket keys
func (w Weights) Validate() error {
	for k, v := range w.Budget {
		if !knownBudget(k) || k == types.BudgetUnspecified || v < 0 {
			return errors.Newf(errors.TypeConfig, "invalid budget weight %q=%d", k, v)
		}
	}
	for k, v := range w.Urgency {
		if !knownUrgency(k) || k == types.UrgencyUnspecified || v < 0 {
			return errors.Newf(errors.TypeConfig, "invalid urgency weight %q=%d", k, v)
		}
	}
	for k, v := range w.Timeframe {
		if !knownTimeframe(k) || k == types.TimeframeUnspecified || v < 0 {
			return errors.Newf(errors.TypeConfig, "invalid timeframe weight %q=%d", k, v)
		}
	}
	flat := []int{
		w.DecisionMaker, w.ContactComplete, w.HighQualitySource,
		w.Caps.Budget, w.Caps.Urgency, w.Caps.DecisionMaker, w.Caps.Timeframe, w.Caps.Contact, w.Caps.Source,
	}
	for _, v := range flat {
		if v < 0 {
			return errors.Newf(errors.TypeConfig, "lead score weights and caps must not be negative")
		}
	}
	return nil
}

// Scorer scores leads against one weight table
type Scorer struct {
	weights Weights
	quality map[types.LeadSource]bool
}

// NewScorer validates the weights and returns a scorer bound to them
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	quality := make(map[types.LeadSource]bool, len(w.HighQualitySources))
	for _, s := range w.HighQualitySources {
		quality[s] = true
	}
	return &Scorer{weights: w, quality: quality}, nil
}

// Weights returns the point table the scorer was built with
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes the lead score. Unspecified buckets contribute nothing;
// unknown bucket values are rejected.
func (s *Scorer) Score(in types.LeadScoreInputs) (types.LeadScore, error) {
	if !knownBudget(in.Budget) {
		return types.LeadScore{}, errors.InvalidInput("unknown budget range %q", in.Budget)
	}
	if !knownUrgency(in.Urgency) {
		return types.LeadScore{}, errors.InvalidInput("unknown urgency %q", in.Urgency)
	}
	if !knownTimeframe(in.Timeframe) {
		return types.LeadScore{}, errors.InvalidInput("unknown timeframe %q", in.Timeframe)
	}

	w := s.weights
	b := types.ScoreBreakdown{
		Budget:    capAt(w.Budget[in.Budget], w.Caps.Budget),
		Urgency:   capAt(w.Urgency[in.Urgency], w.Caps.Urgency),
		Timeframe: capAt(w.Timeframe[in.Timeframe], w.Caps.Timeframe),
	}
	if in.DecisionMaker {
		b.DecisionMaker = capAt(w.DecisionMaker, w.Caps.DecisionMaker)
	}
	if in.HasEmail && in.HasPhone {
		b.Contact = capAt(w.ContactComplete, w.Caps.Contact)
	}
	if s.quality[in.Source] {
		b.Source = capAt(w.HighQualitySource, w.Caps.Source)
	}

	// every contribution is >= 0, so only the upper bound needs enforcing
	return types.LeadScore{Score: min(MaxScore, b.Sum()), Breakdown: b}, nil
}

func capAt(points, limit int) int {
	if points > limit {
		return limit
	}
	return points
}

func knownBudget(v types.BudgetRange) bool {
	switch v {
	case types.BudgetUnspecified, types.BudgetUnder2500, types.Budget2500To5000,
		types.Budget5000To10000, types.Budget10000Plus:
		return true
	}
	return false
}

func knownUrgency(v types.Urgency) bool {
	switch v {
	case types.UrgencyUnspecified, types.UrgencyImmediate, types.UrgencyUrgent,
		types.UrgencyModerate, types.UrgencyPlanning:
		return true
	}
	return false
}

func knownTimeframe(v types.Timeframe) bool {
	switch v {
	case types.TimeframeUnspecified, types.TimeframeImmediate, types.TimeframeOneMonth,
		types.TimeframeOneToThree, types.TimeframeThreeToSix, types.TimeframeSixPlus:
		return true
	}
	return false
}
