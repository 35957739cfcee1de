// Package logger builds the zerolog loggers used by the command line tools.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a JSON logger writing to w with timestamps.
// Verbose enables debug events such as training progress.
func New(w io.Writer, verbose bool) zerolog.Logger {
	return zerolog.New(w).
		Level(level(verbose)).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human readable logger writing to stderr
func NewConsole(verbose bool) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr}, verbose)
}

// Component tags every event of l with the given component name
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
