package logger

import "codeberg.org/mutker/hwscore/internal/errors"

// Logger is what the probe, store and exporter log through. main hands each
// one a child from With so their lines carry a component field.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent

	// ErrorWithCode adds error_code, error_message, the cause and the
	// error's context data under error_data.
	ErrorWithCode(err errors.Error) *LogEvent
	ErrorWithContext(err errors.Error, component, operation string) *LogEvent

	// With returns a child logger tagging every line with component.
	With(component string) Logger
}
