package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/choiwab/julius-baer-side-quest/internal/log"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	assert.NotNil(t, logger)
}

func TestLogger_Log(t *testing.T) {
	logger := NewLogger()

	// Should not panic with a fully populated event.
	logger.Log(Event{
		Type:      EventTransferSuccess,
		Actor:     "alice",
		Action:    "transfer executed",
		Resource:  "ACC1000->ACC1001",
		Result:    "success",
		RequestID: "req-123",
		Details: map[string]string{
			"amount": "42.50",
		},
	})

	// Missing timestamp is set automatically.
	logger.Log(Event{
		Type:     EventAuthSuccess,
		Actor:    "alice",
		Action:   "bearer token issued",
		Resource: "/authToken",
		Result:   "success",
	})
}

func TestLogger_LogFromContext(t *testing.T) {
	logger := NewLogger()

	ctx := log.ContextWithRequestID(context.Background(), "req-456")
	logger.LogFromContext(ctx, Event{
		Type:     EventAuthFailure,
		Actor:    "eve",
		Action:   "authentication rejected",
		Resource: "/authToken",
		Result:   "failure",
	})
}

func TestLogger_Helpers(t *testing.T) {
	logger := NewLogger()
	ctx := context.Background()

	logger.AuthIssued(ctx, "alice", "transfer")
	logger.AuthFailed(ctx, "eve", "transfer", "invalid credentials")
	logger.TransferCompleted(ctx, "alice", "ACC1000", "ACC1001", 100, "tx-0001")
	logger.TransferFailed(ctx, "alice", "ACC1000", "ACC9999", 5, "account not found")
	logger.JournalError(ctx, "disk full")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", formatAmount(0))
	assert.Equal(t, "42.50", formatAmount(42.5))
	assert.Equal(t, "-10.00", formatAmount(-10))
}

func TestEvent_TimestampAutoSet(t *testing.T) {
	logger := NewLogger()

	before := time.Now()
	logger.Log(Event{
		Type:   EventJournalError,
		Actor:  "system",
		Result: "failure",
	})
	after := time.Now()
	assert.True(t, before.Before(after) || before.Equal(after))
}
