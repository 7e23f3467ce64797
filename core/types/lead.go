// Package types - Lead qualification types
package types

// BudgetRange is the homeowner's stated budget bucket
type BudgetRange string

const (
	BudgetUnspecified BudgetRange = ""
	BudgetUnder2500   BudgetRange = "under_2500"
	Budget2500To5000  BudgetRange = "2500_5000"
	Budget5000To10000 BudgetRange = "5000_10000"
	Budget10000Plus   BudgetRange = "10000_plus"
)

// Urgency is how soon the homeowner says the work is needed
type Urgency string

const (
	UrgencyUnspecified Urgency = ""
	UrgencyImmediate   Urgency = "immediate"
	UrgencyUrgent      Urgency = "urgent"
	UrgencyModerate    Urgency = "moderate"
	UrgencyPlanning    Urgency = "planning"
)

// Timeframe is when the homeowner expects to sign
type Timeframe string

const (
	TimeframeUnspecified Timeframe = ""
	TimeframeImmediate   Timeframe = "immediate"
	TimeframeOneMonth    Timeframe = "1_month"
	TimeframeOneToThree  Timeframe = "1_3_months"
	TimeframeThreeToSix  Timeframe = "3_6_months"
	TimeframeSixPlus     Timeframe = "6_plus_months"
)

// LeadSource is the channel a lead arrived through. The set is open; quality
// is decided by scoring configuration.
type LeadSource string

const (
	SourceReferral  LeadSource = "referral"
	SourceWebsite   LeadSource = "website"
	SourceGoogleAds LeadSource = "google_ads"
	SourceFacebook  LeadSource = "facebook"
	SourceDoorKnock LeadSource = "door_knock"
	SourceStorm     LeadSource = "storm_canvass"
	SourceOther     LeadSource = "other"
)

// LeadScoreInputs are the qualification signals a lead score is derived from
type LeadScoreInputs struct {
	Budget        BudgetRange `json:"budget"`
	Urgency       Urgency     `json:"urgency"`
	DecisionMaker bool        `json:"decision_maker"`
	Timeframe     Timeframe   `json:"timeframe"`
	HasEmail      bool        `json:"has_email"`
	HasPhone      bool        `json:"has_phone"`
	Source        LeadSource  `json:"source"`
}

// ScoreBreakdown records each capped contribution to a lead score
type ScoreBreakdown struct {
	Budget        int `json:"budget"`
	Urgency       int `json:"urgency"`
	DecisionMaker int `json:"decision_maker"`
	Timeframe     int `json:"timeframe"`
	Contact       int `json:"contact"`
	Source        int `json:"source"`
}

// Sum adds every contribution
func (b ScoreBreakdown) Sum() int {
	return b.Budget + b.Urgency + b.DecisionMaker + b.Timeframe + b.Contact + b.Source
}

// LeadScore is the derived score together with how it was reached
type LeadScore struct {
	Score     int            `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}
