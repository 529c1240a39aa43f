// Package telemetry groups the observability building blocks.
//
// # Overview
//
// The telemetry subpackages cover structured logging, OpenTelemetry
// tracing, and health probes. Prometheus metric definitions live next
// to the code they instrument (see pkg/audit); the watch server exposes
// them on /metrics.
//
// # Components
//
//   - logging: slog-based structured logging with audit context fields
//   - tracing: OpenTelemetry span export for audit runs
//   - health: liveness and readiness probes for watch mode
//
// # Usage
//
//	logger, err := logging.New(cfg.Telemetry.Logging, os.Stderr)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, buildVersion)
//	defer tracer.Shutdown(context.Background())
//
//	auditor, err := audit.NewAuditor(store, registry, audit.AuditorConfig{
//	    Logger: logger,
//	    Tracer: tracer.Tracer(),
//	})
//
// One-shot commands only set up logging. Watch mode adds tracing, the
// metrics endpoint, and the health checker, since that is where a
// long-lived process pays off the observability cost.
package telemetry
