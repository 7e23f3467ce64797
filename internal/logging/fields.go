package logging

import (
	"go.uber.org/zap"
)

// Field keys shared by the API, the workflow and the delivery adapters
const (
	KeyRequestID  = "request_id"
	KeySessionID  = "session_id"
	KeyRunID      = "run_id"
	KeyProposalID = "proposal_id"
	KeyTier       = "tier"
)

// RequestID tags an entry with the HTTP request it was written for
func RequestID(id string) zap.Field {
	return zap.String(KeyRequestID, id)
}

// SessionID tags an entry with a proposal workflow session
func SessionID(id string) zap.Field {
	return zap.String(KeySessionID, id)
}

// RunID tags an entry with a persisted pricing run
func RunID(id string) zap.Field {
	return zap.String(KeyRunID, id)
}

// ProposalID tags an entry with a rendered proposal
func ProposalID(id string) zap.Field {
	return zap.String(KeyProposalID, id)
}

// Tier tags an entry with a pricing tier
func Tier[T ~string](t T) zap.Field {
	return zap.String(KeyTier, string(t))
}

// Transition records a workflow state change
func Transition[S ~string](from, to S) zap.Field {
	return zap.Dict("transition", zap.String("from", string(from)), zap.String("to", string(to)))
}

// ForSession returns l scoped to one session, plus the request when known.
// Empty ids are left off.
func ForSession(l *zap.Logger, sessionID, requestID string) *zap.Logger {
	var fields []zap.Field
	if sessionID != "" {
		fields = append(fields, SessionID(sessionID))
	}
	if requestID != "" {
		fields = append(fields, RequestID(requestID))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
