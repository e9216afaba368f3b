package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

type stringerValue struct{}

func (stringerValue) String() string { return "stringer" }

func Test_kvToOtelAttributes(t *testing.T) {
	tests := []struct {
		name          string
		keysAndValues []any
		expected      []attribute.KeyValue
	}{
		{
			name:          "empty input",
			keysAndValues: []any{},
			expected:      []attribute.KeyValue{},
		},
		{
			name:          "mixed types",
			keysAndValues: []any{"key1", "value1", "key2", 42, "key3", true, "key4", int64(7), "key5", 1.5},
			expected: []attribute.KeyValue{
				attribute.String("key1", "value1"),
				attribute.Int("key2", 42),
				attribute.Bool("key3", true),
				attribute.Int64("key4", 7),
				attribute.Float64("key5", 1.5),
			},
		},
		{
			name:          "error and stringer",
			keysAndValues: []any{"error", errors.New("boom"), "address", stringerValue{}},
			expected: []attribute.KeyValue{
				attribute.String("error", "boom"),
				attribute.String("address", "stringer"),
			},
		},
		{
			name:          "odd number of elements",
			keysAndValues: []any{"key1", "value1", "key2"},
			expected: []attribute.KeyValue{
				attribute.String("key1", "value1"),
				attribute.String("key2", "MISSING"),
			},
		},
		{
			name:          "non-string key",
			keysAndValues: []any{123, "value1", "key2", 42},
			expected: []attribute.KeyValue{
				attribute.String("invalidKeysAndValues", "[123 value1 key2 42]"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, kvToOtelAttributes(tt.keysAndValues...))
		})
	}
}
