package rehydrate

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Fields carries structured context for a log line.
type Fields map[string]any

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "debug"
	LevelWarn  Level = "warn"
)

// Logger receives engine diagnostics. Storage failures are reported at warn
// level; protocol progress at debug level.
type Logger interface {
	Debug(msg string, fields Fields)
	Warn(msg string, fields Fields)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(level Level, msg string, fields Fields)

func (f LoggerFunc) Debug(msg string, fields Fields) {
	if f != nil {
		f(LevelDebug, msg, fields)
	}
}

func (f LoggerFunc) Warn(msg string, fields Fields) {
	if f != nil {
		f(LevelWarn, msg, fields)
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, Fields) {}
func (noopLogger) Warn(string, Fields)  {}

// NopLogger discards everything.
func NopLogger() Logger { return noopLogger{} }

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger writes engine diagnostics through log.
func NewZerologLogger(log zerolog.Logger) Logger {
	return zerologLogger{log: log}
}

func (l zerologLogger) Debug(msg string, fields Fields) {
	l.log.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (l zerologLogger) Warn(msg string, fields Fields) {
	l.log.Warn().Fields(map[string]any(fields)).Msg(msg)
}

// defaultLogger writes to stderr; level falls back to warn when unparsable.
func defaultLogger(level string) Logger {
	return newLeveledLogger(os.Stderr, level)
}

func newLeveledLogger(w io.Writer, level string) Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.WarnLevel
	}
	return NewZerologLogger(zerolog.New(w).Level(parsed).With().Timestamp().Str("component", "rehydrate").Logger())
}
