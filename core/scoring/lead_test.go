package scoring

import (
	"testing"

	"roofquote/core/types"
	"roofquote/internal/errors"
)

func newTestScorer(t *testing.T, w Weights) *Scorer {
	t.Helper()
	s, err := NewScorer(w)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func hotLead() types.LeadScoreInputs {
	return types.LeadScoreInputs{
		Budget:        types.Budget10000Plus,
		Urgency:       types.UrgencyImmediate,
		DecisionMaker: true,
		Timeframe:     types.TimeframeImmediate,
		HasEmail:      true,
		HasPhone:      true,
		Source:        types.SourceReferral,
	}
}

func TestScoreMaximizingLeadIsExactlyMax(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())

	got, err := s.Score(hotLead())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Score != MaxScore {
		t.Fatalf("score = %d, want %d (breakdown %+v)", got.Score, MaxScore, got.Breakdown)
	}
}

func TestScoreClampsAtMax(t *testing.T) {
	w := DefaultWeights()
	w.DecisionMaker = 40
	w.Caps.DecisionMaker = 40
	s := newTestScorer(t, w)

	got, err := s.Score(hotLead())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Breakdown.Sum() <= MaxScore {
		t.Fatalf("raw sum %d should exceed %d for this test", got.Breakdown.Sum(), MaxScore)
	}
	if got.Score != MaxScore {
		t.Errorf("score = %d, want clamp at %d", got.Score, MaxScore)
	}
}

func TestScoreCapsContributionsIndividually(t *testing.T) {
	w := DefaultWeights()
	w.Budget[types.Budget10000Plus] = 80
	s := newTestScorer(t, w)

	got, err := s.Score(types.LeadScoreInputs{Budget: types.Budget10000Plus})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Breakdown.Budget != w.Caps.Budget || got.Score != w.Caps.Budget {
		t.Errorf("budget contribution = %d, score = %d; want both capped at %d", got.Breakdown.Budget, got.Score, w.Caps.Budget)
	}
}

func TestScoreEmptyLeadIsZero(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())

	got, err := s.Score(types.LeadScoreInputs{})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Score != 0 {
		t.Errorf("score = %d, want 0", got.Score)
	}
}

func TestScoreContactCompletenessBonus(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())
	bonus := DefaultWeights().ContactComplete

	complete := hotLead()
	complete.Urgency = types.UrgencyModerate

	tests := []struct {
		name      string
		email     bool
		phone     bool
		wantBonus bool
	}{
		{"both", true, true, true},
		{"email only", true, false, false},
		{"phone only", false, true, false},
		{"neither", false, false, false},
	}

	full, err := s.Score(complete)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := complete
			in.HasEmail, in.HasPhone = tt.email, tt.phone
			got, err := s.Score(in)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			want := full.Score
			if !tt.wantBonus {
				want -= bonus
			}
			if got.Score != want {
				t.Errorf("score = %d, want %d", got.Score, want)
			}
		})
	}
}

func TestScoreBucketsDecreaseStepwise(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())
	score := func(in types.LeadScoreInputs) int {
		t.Helper()
		got, err := s.Score(in)
		if err != nil {
			t.Fatalf("Score(%+v): %v", in, err)
		}
		return got.Score
	}

	budgets := []types.BudgetRange{types.Budget10000Plus, types.Budget5000To10000, types.Budget2500To5000, types.BudgetUnder2500, types.BudgetUnspecified}
	for i := 1; i < len(budgets); i++ {
		if score(types.LeadScoreInputs{Budget: budgets[i-1]}) <= score(types.LeadScoreInputs{Budget: budgets[i]}) {
			t.Errorf("budget %q should outscore %q", budgets[i-1], budgets[i])
		}
	}

	urgencies := []types.Urgency{types.UrgencyImmediate, types.UrgencyUrgent, types.UrgencyModerate, types.UrgencyPlanning, types.UrgencyUnspecified}
	for i := 1; i < len(urgencies); i++ {
		if score(types.LeadScoreInputs{Urgency: urgencies[i-1]}) <= score(types.LeadScoreInputs{Urgency: urgencies[i]}) {
			t.Errorf("urgency %q should outscore %q", urgencies[i-1], urgencies[i])
		}
	}

	timeframes := []types.Timeframe{types.TimeframeImmediate, types.TimeframeOneMonth, types.TimeframeOneToThree, types.TimeframeSixPlus}
	for i := 1; i < len(timeframes); i++ {
		if score(types.LeadScoreInputs{Timeframe: timeframes[i-1]}) <= score(types.LeadScoreInputs{Timeframe: timeframes[i]}) {
			t.Errorf("timeframe %q should outscore %q", timeframes[i-1], timeframes[i])
		}
	}
	if score(types.LeadScoreInputs{Timeframe: types.TimeframeSixPlus}) != 0 {
		t.Error("long timeframe should contribute nothing")
	}
}

func TestScoreSourceQuality(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())

	for source, want := range map[types.LeadSource]int{
		types.SourceReferral:  15,
		types.SourceWebsite:   15,
		types.SourceDoorKnock: 0,
		"":                    0,
		"trade_show":          0,
	} {
		got, err := s.Score(types.LeadScoreInputs{Source: source})
		if err != nil {
			t.Fatalf("Score(%q): %v", source, err)
		}
		if got.Score != want {
			t.Errorf("source %q scored %d, want %d", source, got.Score, want)
		}
	}
}

func TestScoreBoundsAcrossAllInputs(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())
	budgets := []types.BudgetRange{"", types.BudgetUnder2500, types.Budget2500To5000, types.Budget5000To10000, types.Budget10000Plus}
	urgencies := []types.Urgency{"", types.UrgencyPlanning, types.UrgencyModerate, types.UrgencyUrgent, types.UrgencyImmediate}
	timeframes := []types.Timeframe{"", types.TimeframeSixPlus, types.TimeframeThreeToSix, types.TimeframeOneToThree, types.TimeframeOneMonth, types.TimeframeImmediate}
	sources := []types.LeadSource{"", types.SourceFacebook, types.SourceReferral}

	for _, b := range budgets {
		for _, u := range urgencies {
			for _, tf := range timeframes {
				for _, src := range sources {
					for mask := 0; mask < 8; mask++ {
						in := types.LeadScoreInputs{
							Budget: b, Urgency: u, Timeframe: tf, Source: src,
							DecisionMaker: mask&1 != 0, HasEmail: mask&2 != 0, HasPhone: mask&4 != 0,
						}
						first, err := s.Score(in)
						if err != nil {
							t.Fatalf("Score(%+v): %v", in, err)
						}
						if first.Score < 0 || first.Score > MaxScore {
							t.Fatalf("Score(%+v) = %d out of bounds", in, first.Score)
						}
						again, _ := s.Score(in)
						if again != first {
							t.Fatalf("Score(%+v) not idempotent: %+v then %+v", in, first, again)
						}
					}
				}
			}
		}
	}
}

func TestScoreRejectsUnknownBuckets(t *testing.T) {
	s := newTestScorer(t, DefaultWeights())
	tests := []types.LeadScoreInputs{
		{Budget: "a_lot"},
		{Urgency: "yesterday"},
		{Timeframe: "someday"},
	}
	for _, in := range tests {
		if _, err := s.Score(in); !errors.IsType(err, errors.TypeInvalidInput) {
			t.Errorf("Score(%+v): expected invalid input, got %v", in, err)
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	w := DefaultWeights()
	w.Urgency["whenever"] = 3
	if _, err := NewScorer(w); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected config error for unknown urgency key, got %v", err)
	}

	w = DefaultWeights()
	w.ContactComplete = -1
	if _, err := NewScorer(w); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected config error for negative weight, got %v", err)
	}
}
