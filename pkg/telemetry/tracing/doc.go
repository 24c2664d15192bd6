// Package tracing records OpenTelemetry spans for inbound API requests,
// outbound gateway fetches and batch aggregation runs.
//
// Spans are exported over OTLP/gRPC when telemetry.tracing.enabled is set:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "localhost:4317"
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// Trace context is propagated with W3C traceparent headers, both from
// callers into the server and from the gateway to upstream providers.
// A nil or disabled *Tracer is safe to use and records nothing.
package tracing
