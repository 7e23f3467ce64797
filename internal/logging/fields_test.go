package logging

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestForSession(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		requestID string
		want      map[string]interface{}
	}{
		{"both", "s-1", "req-9", map[string]interface{}{KeySessionID: "s-1", KeyRequestID: "req-9"}},
		{"session only", "s-1", "", map[string]interface{}{KeySessionID: "s-1"}},
		{"neither", "", "", map[string]interface{}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			ForSession(zap.New(core), tt.sessionID, tt.requestID).Debug("session updated")

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("got %d entries", len(entries))
			}
			if got := entries[0].ContextMap(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
		})
	}
}

type state string

func TestFieldHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	zap.New(core).Info("proposal sent",
		RunID("run-1"),
		ProposalID("prop-best"),
		Tier(state("best")),
		Transition(state("generated"), state("sent")))

	got := logs.All()[0].ContextMap()
	want := map[string]interface{}{
		KeyRunID:      "run-1",
		KeyProposalID: "prop-best",
		KeyTier:       "best",
		"transition":  map[string]interface{}{"from": "generated", "to": "sent"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fields = %v, want %v", got, want)
	}
}
