package api

import (
	"github.com/shopspring/decimal"

	"roofquote/core/types"
	"roofquote/core/workflow"
)

// FinancingRequest is the body of POST /v1/financing
type FinancingRequest struct {
	// Principal is the amount to finance
	Principal decimal.Decimal `json:"principal"`

	// Terms requested in months; empty uses the catalog terms
	Terms []int `json:"terms,omitempty"`

	// Lenders overrides the catalog lender panel
	Lenders []types.Lender `json:"lenders,omitempty"`
}

// FinancingResponse lists every eligible option plus the headline
type FinancingResponse struct {
	Options  []types.FinancingOption `json:"options"`
	Headline *types.FinancingOption  `json:"headline,omitempty"`
}

// LeadScoreRequest is the body of POST /v1/leads/score
type LeadScoreRequest struct {
	// LeadRef is the CRM contact the score belongs to, required to persist
	LeadRef string `json:"lead_ref,omitempty"`

	types.LeadScoreInputs
}

// LeadScoreResponse is the computed score
type LeadScoreResponse struct {
	types.LeadScore

	// RecordID is set when the score was persisted
	RecordID string `json:"record_id,omitempty"`
}

// SessionRequest optionally names a new session
type SessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// SelectTierRequest is the body of the tier transition
type SelectTierRequest struct {
	Tier types.TierName `json:"tier"`
}

// ProposalRequest is the body of the proposal transition
type ProposalRequest struct {
	ScopeOfWork string `json:"scope_of_work"`
}

// SendRequest is the body of the send transition
type SendRequest struct {
	Recipient string `json:"recipient"`
}

// SessionResponse wraps a workflow snapshot
type SessionResponse struct {
	workflow.Snapshot

	// Terminal is true once the session can no longer change
	Terminal bool `json:"terminal"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
