package metrics

import (
	"sync"
	"time"

	"quizhub/aggregator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// otherLabel replaces label values once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns every Prometheus metric of the aggregator and exposes one
// Record method per event. A nil *Collector and a disabled one both turn
// every call into a no-op, so components can take an optional collector.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	gatewayMetrics *GatewayMetrics
	batchMetrics   *BatchMetrics
	probeMetrics   *ProbeMetrics

	// Upstream hosts and provider names come from remote data.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "quizhub",
//		Subsystem: "aggregator",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20}
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		gatewayMetrics:     NewGatewayMetrics(cfg, registry),
		batchMetrics:       NewBatchMetrics(cfg, registry),
		probeMetrics:       NewProbeMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// limit returns value if the (kind, value) pair fits in the cardinality
// budget and otherLabel otherwise.
func (c *Collector) limit(kind, value string) string {
	if c.cardinalityLimiter.Allow(kind + ":" + value) {
		return value
	}
	return otherLabel
}

// RecordGatewayRequest records one proxied request by its outcome
// ("ok", "missing_url", "invalid_url", "forbidden", "html", "invalid_json",
// "fetch_error") and total handling time.
func (c *Collector) RecordGatewayRequest(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.gatewayMetrics.RecordRequest(outcome, duration)
}

// RecordUpstreamFetch records an outbound fetch to host. status is the
// upstream HTTP status, or 0 when the transport failed.
func (c *Collector) RecordUpstreamFetch(host string, status int, duration time.Duration, bodyBytes int) {
	if !c.enabled() {
		return
	}
	c.gatewayMetrics.RecordUpstream(c.limit("host", host), status, duration, bodyBytes)
}

// RecordRateLimited records an inbound request rejected by the rate limiter.
func (c *Collector) RecordRateLimited() {
	if !c.enabled() {
		return
	}
	c.gatewayMetrics.rateLimitedTotal.Inc()
}

// RecordProviderFetch records the outcome of one provider's series fetch
// inside a batch: "ok", "empty" or "error".
func (c *Collector) RecordProviderFetch(provider, outcome string, items int) {
	if !c.enabled() {
		return
	}
	c.batchMetrics.RecordProvider(c.limit("provider", provider), outcome, items)
}

// RecordChunk records one settled aggregator chunk.
func (c *Collector) RecordChunk(size int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.batchMetrics.RecordChunk(size, duration)
}

// RecordBatch records a finished FetchAll run.
func (c *Collector) RecordBatch(providers, items int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.batchMetrics.RecordBatch(providers, items, duration)
}

// SetProviderAvailable sets the availability gauge of provider (1 or 0).
func (c *Collector) SetProviderAvailable(provider string, available bool) {
	if !c.enabled() {
		return
	}
	c.probeMetrics.SetAvailable(c.limit("provider", provider), available)
}

// RecordProbeRun records a completed probe run.
func (c *Collector) RecordProbeRun(duration time.Duration, available, total int) {
	if !c.enabled() {
		return
	}
	c.probeMetrics.RecordRun(duration, available, total)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already tracked or still fits under the
// limit, tracking it in the latter case.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
