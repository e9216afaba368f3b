package log

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Logger is a leveled, structured logger.
// keysAndValues are alternating keys and values, e.g. "address", addr.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs and exits the process for ZapLogger.
	Fatal(msg string, keysAndValues ...any)

	// WithKV returns a logger that adds key and value to every entry.
	WithKV(key string, value any) Logger
	// GetAllKV returns the pairs added with WithKV.
	GetAllKV() []any
	// WithName returns a logger with name appended to its dotted name.
	WithName(name string) Logger
	Name() string
	// AddCallerSkip skips extra stack frames when reporting the caller.
	// Use it from logging helpers. Loggers without caller info return themselves.
	AddCallerSkip(skip int) Logger
}

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// ParseLevel validates a level name.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal:
		return l, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Config selects the format, minimum level and destination of a ZapLogger.
type Config struct {
	Format string `env:"LOG_FORMAT" env-default:"console"` // console, logfmt or json
	Level  Level  `env:"LOG_LEVEL" env-default:"info"`
	Output string `env:"LOG_OUTPUT" env-default:"stderr"` // stderr, stdout or a file path
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var conf Config
	if err := cleanenv.ReadEnv(&conf); err != nil {
		return Config{}, fmt.Errorf("failed to read log config: %w", err)
	}
	if _, err := ParseLevel(string(conf.Level)); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// SpanEventRecorder records log entries on a trace span.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string
	RecordEvent(name string, keysAndValues ...any)
	// RecordError records the entry and marks the span as failed.
	RecordError(name string, keysAndValues ...any)
}
