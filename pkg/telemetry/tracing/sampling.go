package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler maps the configured sample ratio onto an SDK sampler.
//
// A ratio of 1.0 records every trace and 0.0 records none. Anything in
// between samples by trace ID hash, so an audit run keeps all of its
// check spans or none of them. Ratio samplers are wrapped in
// ParentBased so child spans follow the root span's decision.
func newSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1.0:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
