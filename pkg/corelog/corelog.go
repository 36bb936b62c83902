// Package corelog provides structured logging for the coordination core,
// grounded on the pack's zerolog wrapper pattern (cuemby-warren/pkg/log):
// a small set of leveled helpers over a component-scoped zerolog.Logger,
// rather than a bare stdlib logger.
package corelog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a component-scoped zerolog.Logger with the field-map style
// the coordination core calls with (team/recipient/task_id keys).
type Logger struct {
	z zerolog.Logger
}

// Config controls process-wide logger construction.
type Config struct {
	Level      zerolog.Level
	JSONOutput bool
	Output     io.Writer
}

// New builds a Logger for the named component (e.g. "inbox", "board",
// "registry").
func New(cfg Config, component string) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	var base zerolog.Logger
	if cfg.JSONOutput {
		base = zerolog.New(output).With().Timestamp().Logger()
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{Out: output}).With().Timestamp().Logger()
	}
	base = base.Level(cfg.Level)
	return &Logger{z: base.With().Str("component", component).Logger()}
}

// NoOp returns a Logger that discards everything, for tests and callers
// that do not want operational noise.
func NoOp() *Logger {
	return &Logger{z: zerolog.Nop()}
}

func (l *Logger) event(e *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

// Debug logs at debug level with structured fields.
func (l *Logger) Debug(msg string, fields map[string]any) { l.event(l.z.Debug(), msg, fields) }

// Info logs at info level with structured fields.
func (l *Logger) Info(msg string, fields map[string]any) { l.event(l.z.Info(), msg, fields) }

// Warn logs at warn level with structured fields.
func (l *Logger) Warn(msg string, fields map[string]any) { l.event(l.z.Warn(), msg, fields) }

// Error logs at error level with structured fields.
func (l *Logger) Error(msg string, fields map[string]any) { l.event(l.z.Error(), msg, fields) }
