// Package log is the service's structured logger.
//
// Loggers are passed explicitly or carried in a context.Context; there is no
// package-level logger.
//
//	conf, err := log.LoadConfig() // LOG_FORMAT, LOG_LEVEL, LOG_OUTPUT
//	logger := log.NewZapLogger(conf)
//	logger.WithName("api").Info("listening", "addr", addr)
//
// Implementations:
//
//   - ZapLogger writes console, logfmt or JSON lines through zap.
//   - NoopLogger discards everything; use it in tests.
//   - SpanLogger forwards every entry to a wrapped logger and to the current
//     trace span. SetContextLogger installs it automatically when the context
//     carries a valid OpenTelemetry span.
//
// Error and Fatal entries mark the span as failed.
package log
