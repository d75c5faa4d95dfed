// Package observability builds the logger and metrics used by the vn
// binaries.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLogLevel overrides the configured log level when set.
const EnvLogLevel = "VN_LOG_LEVEL"

// NewLogger returns a console logger tagged with app. level is a zerolog
// level name; VN_LOG_LEVEL takes precedence when it parses.
func NewLogger(out io.Writer, app, level string) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).
		Level(resolveLevel(level, os.Getenv(EnvLogLevel))).
		With().Timestamp().Str("app", app).Logger()
}

func resolveLevel(configured, env string) zerolog.Level {
	if lvl, ok := ParseLevel(env); ok {
		return lvl
	}
	if lvl, ok := ParseLevel(configured); ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// ParseLevel maps a level name to a zerolog level. Besides zerolog's own
// names it accepts "warning" and the "off", "none" and "disabled" aliases.
// It reports false for an empty or unknown name.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "off", "none", "disabled":
		return zerolog.Disabled, true
	case "warning":
		return zerolog.WarnLevel, true
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}
