// Package logging provides the file backed zerolog logger of the client.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Component names used as the "component" field of sub-loggers.
const (
	ComponentAPI     = "api"
	ComponentTracker = "tracker"
	ComponentState   = "state"
	ComponentTUI     = "tui"
)

// New returns a logger writing JSON lines to path at the given level. An
// empty path discards all output. The returned closer closes the file.
func New(path, level string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("parse log level: %w", err)
	}

	if path == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}

	return NewWriter(f, lvl), f, nil
}

func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Str("service", "baralga").
		Timestamp().
		Logger()
}

func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
