package telemetry

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("POST", "/transfer", "/transfer", 200)
	want := map[attribute.Key]attribute.Value{
		HTTPMethodKey:     attribute.StringValue("POST"),
		HTTPRouteKey:      attribute.StringValue("/transfer"),
		HTTPURLKey:        attribute.StringValue("/transfer"),
		HTTPStatusCodeKey: attribute.IntValue(200),
	}
	if len(attrs) != len(want) {
		t.Fatalf("expected %d attributes, got %d", len(want), len(attrs))
	}
	for _, kv := range attrs {
		if want[kv.Key] != kv.Value {
			t.Errorf("attribute %s = %v, want %v", kv.Key, kv.Value.Emit(), want[kv.Key].Emit())
		}
	}
}

func TestOperationAttributesOmitsEmptyAccount(t *testing.T) {
	attrs := OperationAttributes("balance", "")
	if len(attrs) != 1 {
		t.Fatalf("expected operation attribute only, got %d", len(attrs))
	}
	attrs = OperationAttributes("balance", "ACC1000")
	if len(attrs) != 2 {
		t.Fatalf("expected operation and account attributes, got %d", len(attrs))
	}
}
