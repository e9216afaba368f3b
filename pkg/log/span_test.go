package log_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erc7824/receipt-signer/pkg/log"
)

func kvToMap(kv []any) map[string]any {
	m := make(map[string]any)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			m[key] = kv[i+1]
		}
	}
	return m
}

func TestSpanLogger(t *testing.T) {
	mockLogger := NewMockLogger()
	mockSer := NewMockSpanEventRecorder("trace-id-123", "span-id-456")
	logger := log.NewSpanLogger(mockLogger, mockSer)
	assert.Equal(t, 1, mockLogger.CallerSkip())

	assertEntry := func(t *testing.T, level log.Level, name, msg string, kv []any) {
		t.Helper()

		entry := mockLogger.LastEntry()
		assert.Equal(t, level, entry.Level)
		assert.Equal(t, msg, entry.Message)

		expected := kvToMap(kv)
		logged := kvToMap(entry.KeysAndValues)
		for k, v := range expected {
			assert.Equal(t, v, logged[k])
		}
		assert.Len(t, logged, len(expected)+2) // traceId, spanId
		assert.Equal(t, "trace-id-123", logged["traceId"])
		assert.Equal(t, "span-id-456", logged["spanId"])

		isErr := level == log.LevelError || level == log.LevelFatal
		assert.Equal(t, isErr, mockSer.HasError())

		recorded := kvToMap(mockSer.LastEventMetadata())
		for k, v := range expected {
			assert.Equal(t, v, recorded[k])
		}
		assert.Len(t, recorded, len(expected)+3) // msg, level, component
		assert.Equal(t, string(level), recorded["level"])
		assert.Equal(t, msg, recorded["msg"])
		assert.Equal(t, name, recorded["component"])
	}

	logger = logger.WithName("api")
	kv := []any{"address", "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", "method", "sign"}

	logger.Debug("request", kv...)
	assertEntry(t, log.LevelDebug, "api", "request", kv)

	logger.Info("request", kv...)
	assertEntry(t, log.LevelInfo, "api", "request", kv)

	logger.Warn("request", kv...)
	assertEntry(t, log.LevelWarn, "api", "request", kv)

	logger.Error("request", kv...)
	assertEntry(t, log.LevelError, "api", "request", kv)

	t.Run("Persistent Pairs", func(t *testing.T) {
		logger := logger.WithName("ws").WithKV("requestID", "abc")
		assert.Equal(t, "ws", logger.Name())
		assert.Equal(t, []any{"requestID", "abc"}, logger.GetAllKV())

		helper := func(msg string, kv ...any) {
			logger.AddCallerSkip(1).Error(msg, kv...)
		}
		helper("failed", kv...)
		assertEntry(t, log.LevelError, "ws", "failed", append([]any{"requestID", "abc"}, kv...))
		assert.Equal(t, 2, mockLogger.CallerSkip())
	})
}
