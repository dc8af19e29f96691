package banking

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{
		Sentinel:  ErrUpstreamError,
		Operation: "transfer",
		Status:    502,
		Body:      "bad gateway",
	}
	msg := err.Error()
	for _, want := range []string{"transfer", "HTTP 502", "bad gateway"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("calling api: %w", &APIError{Sentinel: ErrNotFound, Operation: "validate", Status: 404})
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is to match ErrNotFound through the wrap chain")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatal("must not match an unrelated sentinel")
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(&ValidationError{Field: "amount", Reason: "must be positive"}) {
		t.Fatal("expected IsValidation to match *ValidationError")
	}
	if IsValidation(errors.New("other")) {
		t.Fatal("IsValidation must not match arbitrary errors")
	}
	if IsValidation(nil) {
		t.Fatal("IsValidation must not match nil")
	}
}
