package metrics

import (
	"strconv"
	"time"

	"quizhub/aggregator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics tracks the proxy gateway.
//
// Metrics:
//   - quizhub_aggregator_gateway_requests_total: requests by outcome
//   - quizhub_aggregator_gateway_request_duration_seconds: handling time by outcome
//   - quizhub_aggregator_upstream_requests_total: outbound fetches by host and status
//   - quizhub_aggregator_upstream_duration_seconds: outbound fetch latency by host
//   - quizhub_aggregator_upstream_body_bytes: upstream body sizes
//   - quizhub_aggregator_gateway_rate_limited_total: rejected inbound requests
type GatewayMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamBytes    prometheus.Histogram
	rateLimitedTotal prometheus.Counter
}

// NewGatewayMetrics creates and registers gateway metrics with the provided registry.
func NewGatewayMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GatewayMetrics {
	gm := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gateway_requests_total",
				Help:      "Total number of proxy requests by outcome",
			},
			[]string{"outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gateway_request_duration_seconds",
				Help:      "Duration of proxy requests in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"outcome"},
		),

		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of outbound fetches by host and HTTP status (0 for transport failure)",
			},
			[]string{"host", "status"},
		),

		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_duration_seconds",
				Help:      "Latency of outbound fetches in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"host"},
		),

		upstreamBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_body_bytes",
				Help:      "Size of upstream response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 9), // 256B to 16MB
			},
		),

		rateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gateway_rate_limited_total",
				Help:      "Total number of inbound requests rejected by the rate limiter",
			},
		),
	}

	registry.MustRegister(
		gm.requestsTotal,
		gm.requestDuration,
		gm.upstreamTotal,
		gm.upstreamDuration,
		gm.upstreamBytes,
		gm.rateLimitedTotal,
	)

	return gm
}

// RecordRequest records a handled proxy request.
func (gm *GatewayMetrics) RecordRequest(outcome string, duration time.Duration) {
	gm.requestsTotal.WithLabelValues(outcome).Inc()
	gm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordUpstream records an outbound fetch.
func (gm *GatewayMetrics) RecordUpstream(host string, status int, duration time.Duration, bodyBytes int) {
	gm.upstreamTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	gm.upstreamDuration.WithLabelValues(host).Observe(duration.Seconds())
	if bodyBytes > 0 {
		gm.upstreamBytes.Observe(float64(bodyBytes))
	}
}
