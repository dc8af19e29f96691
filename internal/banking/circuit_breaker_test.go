package banking

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	fail := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		if err := cb.Execute(fail); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open state after threshold, got %v", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	_ = cb.Execute(func() error { return errors.New("boom") })
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %v", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// The probe succeeds and closes the circuit again.
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe should have been allowed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed state after successful probe, got %v", cb.State())
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	_ = cb.Execute(func() error { return errors.New("boom") })

	time.Sleep(20 * time.Millisecond)

	_ = cb.Execute(func() error { return errors.New("still down") })
	if cb.State() != StateOpen {
		t.Fatalf("expected open state after failed probe, got %v", cb.State())
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	_ = cb.Execute(func() error { return errors.New("one") })
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = cb.Execute(func() error { return errors.New("two") })
	if cb.State() != StateClosed {
		t.Fatalf("expected closed state, failure count should have reset, got %v", cb.State())
	}
}
