// Package telemetry groups the observability packages of the aggregator.
//
// # Components
//
//   - logging: slog loggers with request and provider context, URL redaction
//     and a runtime-adjustable level
//   - metrics: Prometheus collectors for gateway outcomes, upstream fetches,
//     batch runs and provider availability
//   - tracing: OpenTelemetry spans for API requests, upstream fetches and
//     batch runs, exported over OTLP
//   - health: liveness, readiness and version endpoints
//
// # Configuration
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    enabled: true
//	    path: /metrics
//	  tracing:
//	    enabled: false
//	    endpoint: localhost:4317
//
// Every component is safe to use when disabled: a nil metrics collector and
// a nil tracer record nothing.
package telemetry
