// Package logging builds the structured logger shared by tally's components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Options select where and how much to log.
type Options struct {
	// Path is the log file. Empty logs to stderr, which is only sensible for
	// commands that do not take over the terminal.
	Path    string
	Level   string
	Verbose bool
}

// New returns a logger and the closer for its output.
func New(opts Options) (*log.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = log.DebugLevel
	}

	var (
		out       io.Writer = os.Stderr
		closer    io.Closer = nopCloser{}
		formatter           = log.TextFormatter
	)
	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer, formatter = file, file, log.LogfmtFormatter
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
		Formatter:       formatter,
	})
	return logger, closer, nil
}

// ParseLevel maps a config value to a level; empty means info.
func ParseLevel(value string) (log.Level, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(value)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("parse log level %q: %w", value, err)
	}
	return level, nil
}

// Discard returns a logger that drops everything. Used by tests and as a
// fallback when a component is built without one.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
