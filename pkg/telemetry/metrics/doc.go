// Package metrics provides Prometheus metrics for the QuizHub aggregator.
//
// # Metrics Categories
//
//   - Gateway: proxied requests by outcome, upstream fetch latency and status
//   - Batch: per-provider fetch outcomes, chunk sizes and durations
//   - Probe: per-provider availability gauges from the scheduled probe
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordGatewayRequest("ok", 120*time.Millisecond)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// Host and provider labels come from remote data, so they pass through a
// CardinalityLimiter and collapse to "other" past the limit.
package metrics
