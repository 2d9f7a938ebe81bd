// Package log builds the application's slog.Logger.
//
// Records are rendered by a charmbracelet/log handler (text, JSON or logfmt)
// and pass through a RedactingHandler first, so proxy credentials and
// database passwords never reach the output.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level ("debug", "info",
// "warn", "error") in the given format ("text", "json", "logfmt").
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter charmlog.Formatter
	switch format {
	case "", "text":
		formatter = charmlog.TextFormatter
	case "json":
		formatter = charmlog.JSONFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})

	return slog.New(NewRedactingHandler(handler)), nil
}

// Discard returns a logger that drops everything. Used by tests and library
// callers that do not pass a logger.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
