// Package logging wraps zerolog with key/value convenience methods.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger taking alternating key/value pairs.
// Values under the "error" key that implement error are logged by message.
type Logger struct {
	zl zerolog.Logger
}

var global = NewDevelopment()

// NewDevelopment creates a debug level logger with console output on stdout
func NewDevelopment() *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, zerolog.DebugLevel)
}

// NewNop creates a logger that discards everything
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// NewWithWriter creates a JSON logger writing to w
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// SetGlobal replaces the process-wide logger
func SetGlobal(logger *Logger) {
	global = logger
}

// Global returns the process-wide logger
func Global() *Logger {
	return global
}

func (l *Logger) log(e *zerolog.Event, msg string, kv []interface{}) {
	e.Fields(pairs(kv)).Msg(msg)
}

// pairs converts key/value arguments into a zerolog field map, skipping
// non-string keys and a trailing key without value
func pairs(kv []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if err, isErr := kv[i+1].(error); isErr && key == "error" {
			fields[key] = err.Error()
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.log(l.zl.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...interface{}) { l.log(l.zl.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...interface{}) { l.log(l.zl.Warn(), msg, kv) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.log(l.zl.Error(), msg, kv) }

// Fatal logs and exits the process
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.log(l.zl.Fatal(), msg, kv) }

// With returns a child logger that adds kv to every entry
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(pairs(kv)).Logger()}
}

// WithContext returns a child logger carrying the request and report IDs
// stored in ctx
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := extractContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
