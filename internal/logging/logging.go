// Package logging configures the process logger. All diagnostics go to
// stderr so stdout stays reserved for reports and machine-readable streams.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Verbose lowers the level from info to debug.
	Verbose bool
	// Writer overrides the destination; nil means stderr.
	Writer io.Writer
}

// Setup builds the logger used across a run.
func Setup(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stderr
	}

	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}
