// Package server provides the observability HTTP server for watch mode.
//
// One-shot audit runs print their results and exit, so they carry no
// HTTP surface. Watch mode is a long-lived daemon; this server is how
// operators see into it.
//
// # Endpoints
//
//   - GET /metrics: Prometheus metrics (path configurable)
//   - GET /healthz: liveness probe, always 200 while the process runs
//   - GET /readyz: readiness probe, 503 when a component check fails
//   - GET /version: build information
//   - GET /status: summary of the most recent audit run
//
// # Basic Usage
//
//	checker := health.New(0)
//	checker.Register("policies", policyCheck)
//
//	srv := server.New(server.Options{
//	    Addr:        cfg.Watch.ListenAddress,
//	    Logger:      logger,
//	    Health:      checker,
//	    MetricsPath: cfg.Telemetry.Metrics.Path,
//	})
//
//	// Blocks until ctx is cancelled.
//	err := srv.Start(ctx)
//
// # Graceful Shutdown
//
// Cancelling the context passed to Start stops the listener and waits
// up to ten seconds for in-flight requests, which keeps a Prometheus
// scrape from being cut off mid-response.
//
// # Security
//
// The default listen address is loopback-only. The endpoints expose
// operational data (rule IDs, finding counts), so binding to a public
// interface should go through the deployment's usual ingress controls.
package server
