package banking

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	StateClosed   State = iota // Normal operation, requests allowed
	StateOpen                  // Circuit open, requests blocked
	StateHalfOpen              // Testing if service recovered
)

var ErrCircuitOpen = errors.New("banking: circuit breaker is open")

// CircuitBreaker implements a state machine to prevent hammering an
// unavailable API with repeated requests.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            State
	failures         int
	failureThreshold int
	resetTimeout     time.Duration
	lastFailure      time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
	}
	setCircuitBreakerState(stateLabel(cb.state))
	return cb
}

// Execute runs the given function if the circuit is closed or half-open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allowRequest() {
		return ErrCircuitOpen
	}

	err := fn()

	if err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

// allowRequest checks if a request should be allowed based on current state.
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	prevState := cb.state

	if cb.state == StateClosed {
		cb.mu.Unlock()
		return true
	}

	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.state = StateHalfOpen
			state := cb.state
			cb.mu.Unlock()
			if state != prevState {
				setCircuitBreakerState(stateLabel(state))
			}
			return true
		}
		cb.mu.Unlock()
		return false
	}

	// StateHalfOpen: allow the probe request through.
	cb.mu.Unlock()
	return true
}

// recordFailure records a failure and potentially opens the circuit.
func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	prevState := cb.state

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
	} else if cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
	}
	state := cb.state
	cb.mu.Unlock()
	if state != prevState {
		setCircuitBreakerState(stateLabel(state))
	}
}

// recordSuccess records a success and closes the circuit.
func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	prevState := cb.state

	cb.failures = 0
	cb.state = StateClosed
	state := cb.state
	cb.mu.Unlock()
	if state != prevState {
		setCircuitBreakerState(stateLabel(state))
	}
}

// State returns the current state (thread-safe).
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

func stateLabel(state State) string {
	switch state {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}
