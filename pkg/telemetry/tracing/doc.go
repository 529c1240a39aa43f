// Package tracing provides OpenTelemetry tracing for audit runs.
//
// # Overview
//
// The tracing package sets up the OpenTelemetry SDK with an OTLP gRPC
// exporter and hands the resulting tracer to the auditor, which opens
// one span per audit run with a child span per check. A trace of a slow
// run shows exactly which checks consumed the time.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version.Version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	auditor := audit.New(audit.Options{
//	    Tracer: tracer.Tracer(),
//	    // ...
//	})
//
// # Sampling
//
// The sample_ratio setting controls how many runs are recorded:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    sample_ratio: 1.0   # record every run
//
// Scheduled watch mode can produce a run every few minutes, so busy
// deployments lower the ratio. Sampling decisions are made per trace:
// a sampled run exports all of its check spans, an unsampled run none.
//
// # Disabled Tracing
//
// When tracing is disabled the package returns a noop tracer. Span
// creation still happens at call sites but costs almost nothing, so
// instrumented code paths need no enabled/disabled branches.
package tracing
