// Package logging builds the process logger from configuration.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging in JSON or text format
//   - Context-aware records carrying audit identifiers (run ID, rule ID)
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//
//	logger.Info("policies loaded", "count", 12)
//
// # Context Fields
//
// Audit identifiers stored in the context are appended to every record
// logged through the *Context methods:
//
//	ctx = logging.WithRunID(ctx, run.ID)
//	ctx = logging.WithTrigger(ctx, "watch")
//	logger.InfoContext(ctx, "audit complete", "verdict", run.Verdict)
//	// ... msg="audit complete" verdict=pass run_id=... trigger=watch
//
// This keeps call sites free of identifier plumbing: packages log with
// whatever context they were handed, and the handler fills in the rest.
package logging
