// Package types - Proposal workflow and persisted record types
package types

import "time"

// WorkflowState is a stage of the proposal workflow
type WorkflowState string

const (
	StateMeasuring WorkflowState = "measuring"
	StatePriced    WorkflowState = "priced"
	StateGenerated WorkflowState = "generated"
	StateSent      WorkflowState = "sent"
	StateAbandoned WorkflowState = "abandoned"
)

// IsValid reports whether the state is known
func (s WorkflowState) IsValid() bool {
	switch s {
	case StateMeasuring, StatePriced, StateGenerated, StateSent, StateAbandoned:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition can leave the state
func (s WorkflowState) IsTerminal() bool {
	return s == StateSent || s == StateAbandoned
}

// RenderedProposal is what the rendering collaborator hands back
type RenderedProposal struct {
	// ID is opaque to the workflow
	ID string `json:"id"`

	// HTMLPreview is shown to the salesperson before sending
	HTMLPreview string `json:"html_preview"`

	// PDF is optional
	PDF []byte `json:"-"`
}

// Proposal is a rendered proposal as held by the workflow
type Proposal struct {
	ID          string   `json:"id"`
	Tier        TierName `json:"tier"`
	ScopeOfWork string   `json:"scope_of_work"`
	HTMLPreview string   `json:"html_preview"`
}

// PricingRun is a persisted pricing calculation. The tiers are kept with the
// input that produced them.
type PricingRun struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id,omitempty"`
	Input     PricingInput `json:"input"`
	Tiers     TierSet      `json:"tiers"`
	CreatedAt time.Time    `json:"created_at"`
}

// LeadRecord is a persisted lead score. Inputs stay authoritative; the score
// is stored only alongside them.
type LeadRecord struct {
	ID        string          `json:"id"`
	LeadRef   string          `json:"lead_ref,omitempty"`
	Inputs    LeadScoreInputs `json:"inputs"`
	Score     LeadScore       `json:"score"`
	CreatedAt time.Time       `json:"created_at"`
}
