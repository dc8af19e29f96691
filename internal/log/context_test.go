package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{
			name:      "nil context",
			ctx:       nil,
			requestID: "test-id-123",
			want:      "test-id-123",
		},
		{
			name:      "background context",
			ctx:       context.Background(),
			requestID: "req-456",
			want:      "req-456",
		},
		{
			name:      "empty request ID",
			ctx:       context.Background(),
			requestID: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			got := RequestIDFromContext(ctx)
			if got != tt.want {
				t.Fatalf("RequestIDFromContext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestIDFromContextMissing(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request ID, got %q", got)
	}
	if got := RequestIDFromContext(nil); got != "" {
		t.Fatalf("expected empty request ID for nil context, got %q", got)
	}
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-9")

	enriched := WithContext(ctx, logger)
	enriched.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log JSON: %v", err)
	}
	if entry[FieldRequestID] != "req-1" {
		t.Errorf("expected request_id req-1, got %v", entry[FieldRequestID])
	}
	if entry[FieldCorrelationID] != "corr-9" {
		t.Errorf("expected correlation_id corr-9, got %v", entry[FieldCorrelationID])
	}
}

func TestWithContextNoFieldsReturnsLoggerUnchanged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	plain := WithContext(context.Background(), logger)
	plain.Info().Msg("plain")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log JSON: %v", err)
	}
	if _, ok := entry[FieldRequestID]; ok {
		t.Error("did not expect request_id on bare context")
	}
}
