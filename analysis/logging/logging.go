// Package logging builds the structured logger shared by the pipeline and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

type Config struct {
	Level      string
	JSON       bool
	Output     io.Writer
	TimeFormat string
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Output:     os.Stderr,
		TimeFormat: "15:04:05",
	}
}

// New returns a logger writing to cfg.Output. An unknown level is an error so that a typo in
// -log-level does not silently hide warnings about degraded summaries.
func New(cfg Config) (*charmlog.Logger, error) {
	level := charmlog.InfoLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		l, err := charmlog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = l
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = DefaultConfig().TimeFormat
	}

	logger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Level:           level,
	})
	if cfg.JSON {
		logger.SetFormatter(charmlog.JSONFormatter)
	} else {
		logger.SetFormatter(charmlog.TextFormatter)
	}
	return logger, nil
}

// Discard returns a logger that drops everything.
func Discard() *charmlog.Logger {
	return charmlog.NewWithOptions(io.Discard, charmlog.Options{Level: charmlog.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *charmlog.Logger) *charmlog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
