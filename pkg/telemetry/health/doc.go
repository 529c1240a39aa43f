// Package health provides probe endpoints for the watch server.
//
// # Overview
//
// The health package implements liveness and readiness probes for
// Kubernetes and other orchestration systems, plus a build info
// endpoint. Watch mode runs as a long-lived daemon, so deployments
// need a way to tell "process is up" apart from "process can audit".
//
// # Endpoints
//
//   - /healthz: liveness probe, the process is running
//   - /readyz: readiness probe, policies and stores are usable
//   - /version: build information
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//
//	checker.Register("policies", func(ctx context.Context) error {
//	    if store.PolicyCount() == 0 {
//	        return errors.New("no policies loaded")
//	    }
//	    return nil
//	})
//	checker.Register("history", func(ctx context.Context) error {
//	    return archive.Ping(ctx)
//	})
//
//	mux.HandleFunc("/healthz", checker.LivenessHandler())
//	mux.HandleFunc("/readyz", checker.ReadinessHandler())
//
// # Degraded Readiness
//
// Readiness aggregates all component checks. One unhealthy component
// turns the overall status to "degraded" and the endpoint returns 503,
// which tells the orchestrator to hold traffic without restarting the
// process. Liveness stays green so a broken history database does not
// cause a restart loop.
package health
