package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/choiwab/julius-baer-side-quest/internal/log"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Authentication events
	EventAuthSuccess EventType = "auth.success"
	EventAuthFailure EventType = "auth.failure"

	// Transfer events
	EventTransferSuccess EventType = "transfer.success"
	EventTransferFailure EventType = "transfer.failure"

	// Journal events
	EventJournalError EventType = "journal.error"
)

// Event is a structured audit event following the WHO/WHAT/WHEN pattern.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Actor     string            `json:"actor"`    // WHO: username or "system"
	Action    string            `json:"action"`   // WHAT: human-readable action description
	Resource  string            `json:"resource"` // Resource affected (account, endpoint)
	Result    string            `json:"result"`   // success, failure
	RequestID string            `json:"request_id"`
	Details   map[string]string `json:"details,omitempty"`
}

// Logger emits audit events through the structured log stream with a
// dedicated "audit" component so they can be filtered out downstream.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new audit logger.
func NewLogger() *Logger {
	auditLogger := log.WithComponent("audit").With().
		Str("log_type", "audit").
		Logger()

	return &Logger{logger: auditLogger}
}

// Log writes an audit event.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	logEvent := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	if event.RequestID != "" {
		logEvent.Str("request_id", event.RequestID)
	}
	for key, value := range event.Details {
		logEvent.Str(key, value)
	}

	logEvent.Msg("audit event")
}

// LogFromContext logs an audit event, filling the request ID from the
// context when the event does not carry one.
func (l *Logger) LogFromContext(ctx context.Context, event Event) {
	if event.RequestID == "" {
		event.RequestID = log.RequestIDFromContext(ctx)
	}
	l.Log(event)
}

// AuthIssued logs a successful token issuance.
func (l *Logger) AuthIssued(ctx context.Context, actor, scope string) {
	l.LogFromContext(ctx, Event{
		Type:     EventAuthSuccess,
		Actor:    actor,
		Action:   "bearer token issued",
		Resource: "/authToken",
		Result:   "success",
		Details:  map[string]string{"scope": scope},
	})
}

// AuthFailed logs a failed authentication attempt.
func (l *Logger) AuthFailed(ctx context.Context, actor, scope, reason string) {
	l.LogFromContext(ctx, Event{
		Type:     EventAuthFailure,
		Actor:    actor,
		Action:   "authentication rejected",
		Resource: "/authToken",
		Result:   "failure",
		Details:  map[string]string{"scope": scope, "reason": reason},
	})
}

// TransferCompleted logs a transfer the API accepted.
func (l *Logger) TransferCompleted(ctx context.Context, actor, from, to string, amount float64, transactionID string) {
	l.LogFromContext(ctx, Event{
		Type:     EventTransferSuccess,
		Actor:    actor,
		Action:   "transfer executed",
		Resource: from + "->" + to,
		Result:   "success",
		Details: map[string]string{
			"amount":         formatAmount(amount),
			"transaction_id": transactionID,
		},
	})
}

// TransferFailed logs a transfer attempt that did not go through.
func (l *Logger) TransferFailed(ctx context.Context, actor, from, to string, amount float64, reason string) {
	l.LogFromContext(ctx, Event{
		Type:     EventTransferFailure,
		Actor:    actor,
		Action:   "transfer rejected",
		Resource: from + "->" + to,
		Result:   "failure",
		Details: map[string]string{
			"amount": formatAmount(amount),
			"reason": reason,
		},
	})
}

// JournalError logs a journal write that could not complete. The original
// operation is unaffected.
func (l *Logger) JournalError(ctx context.Context, reason string) {
	l.LogFromContext(ctx, Event{
		Type:     EventJournalError,
		Actor:    "system",
		Action:   "journal write failed",
		Resource: "audit.db",
		Result:   "failure",
		Details:  map[string]string{"reason": reason},
	})
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
