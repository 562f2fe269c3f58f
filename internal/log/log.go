// Package log holds the process-wide structured logger.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logout = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}

// Logger is a globally available logger instance.
var Logger = zerolog.New(logout).
	With().Timestamp().Logger().
	Level(zerolog.InfoLevel)

// ParseLevel maps a config level name to a zerolog level. The empty string
// means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(name))
}

// SetLevel changes the level of the global logger.
func SetLevel(level zerolog.Level) {
	Logger = Logger.Level(level)
}

// SetOutput redirects the global logger. Structured JSON is written when json
// is set, console output otherwise.
func SetOutput(w io.Writer, json bool) {
	level := Logger.GetLevel()
	if json {
		Logger = zerolog.New(w).With().Timestamp().Logger().Level(level)
		return
	}
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().
		Level(level)
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
