package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"wardenhq/warden/pkg/config"
)

// Log output formats.
const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON = "json"
	// FormatText outputs logfmt-style key=value pairs.
	FormatText = "text"
)

// New creates a *slog.Logger from the telemetry logging configuration.
// Output goes to w; a nil w defaults to os.Stderr.
//
// The returned logger enriches every record with audit identifiers
// carried in the context (run ID, rule ID, trigger), so callers only
// need to thread the context through:
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "audit started")  // includes run_id
func New(cfg config.LoggingConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText, "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	return slog.New(&contextHandler{inner: handler}), nil
}

// parseLevel parses a log level string into slog.Level.
func parseLevel(levelStr string) (slog.Level, error) {
	switch levelStr {
	case "debug", "DEBUG":
		return slog.LevelDebug, nil
	case "info", "INFO", "":
		return slog.LevelInfo, nil
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn, nil
	case "error", "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}
