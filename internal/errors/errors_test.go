package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsTypeMatchesWrappedErrors(t *testing.T) {
	base := InvalidInput("roof area must be positive, got %d", 0)
	wrapped := fmt.Errorf("calculate tiers: %w", base)

	if !IsType(wrapped, TypeInvalidInput) {
		t.Fatalf("expected wrapped error to match %s", TypeInvalidInput)
	}
	if IsType(wrapped, TypeExternal) {
		t.Errorf("wrapped input error should not match %s", TypeExternal)
	}
	if got := TypeOf(wrapped); got != TypeInvalidInput {
		t.Errorf("TypeOf = %s, want %s", got, TypeInvalidInput)
	}
	if got := TypeOf(stderrors.New("plain")); got != TypeInternal {
		t.Errorf("TypeOf(plain) = %s, want %s", got, TypeInternal)
	}
}

func TestExternalKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := External("proposal sender", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if err.Context["collaborator"] != "proposal sender" {
		t.Errorf("collaborator context = %v", err.Context["collaborator"])
	}
	want := "[EXTERNAL_FAILURE] proposal sender failed: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorsIsComparesType(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidTransition("Measuring", "generate proposal"))
	if !stderrors.Is(err, &Error{Type: TypeInvalidTransition}) {
		t.Error("expected errors.Is to match on type")
	}
	if stderrors.Is(err, &Error{Type: TypeNotFound}) {
		t.Error("errors.Is matched the wrong type")
	}
}
