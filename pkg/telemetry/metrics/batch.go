package metrics

import (
	"time"

	"quizhub/aggregator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchMetrics tracks the provider fan-out.
type BatchMetrics struct {
	providerFetchTotal *prometheus.CounterVec
	providerItemsTotal *prometheus.CounterVec
	chunkDuration      prometheus.Histogram
	chunkSize          prometheus.Histogram
	batchDuration      prometheus.Histogram
	batchItems         prometheus.Gauge
	batchProviders     prometheus.Gauge
}

// NewBatchMetrics creates and registers aggregator metrics with the provided registry.
func NewBatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BatchMetrics {
	bm := &BatchMetrics{
		providerFetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_fetch_total",
				Help:      "Series fetches per provider by outcome (ok, empty, error)",
			},
			[]string{"provider", "outcome"},
		),

		providerItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_series_items_total",
				Help:      "Test series items returned per provider",
			},
			[]string{"provider"},
		),

		chunkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_chunk_duration_seconds",
				Help:      "Time for one chunk of provider calls to settle",
				Buckets:   cfg.LatencyBuckets,
			},
		),

		chunkSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_chunk_size",
				Help:      "Number of providers per chunk",
				Buckets:   prometheus.LinearBuckets(1, 1, 10),
			},
		),

		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_duration_seconds",
				Help:      "Total duration of a FetchAll run",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),

		batchItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_last_items",
				Help:      "Items returned by the most recent FetchAll run",
			},
		),

		batchProviders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_last_providers",
				Help:      "Providers queried by the most recent FetchAll run",
			},
		),
	}

	registry.MustRegister(
		bm.providerFetchTotal,
		bm.providerItemsTotal,
		bm.chunkDuration,
		bm.chunkSize,
		bm.batchDuration,
		bm.batchItems,
		bm.batchProviders,
	)

	return bm
}

// RecordProvider records one provider call.
func (bm *BatchMetrics) RecordProvider(provider, outcome string, items int) {
	bm.providerFetchTotal.WithLabelValues(provider, outcome).Inc()
	if items > 0 {
		bm.providerItemsTotal.WithLabelValues(provider).Add(float64(items))
	}
}

// RecordChunk records a settled chunk.
func (bm *BatchMetrics) RecordChunk(size int, duration time.Duration) {
	bm.chunkSize.Observe(float64(size))
	bm.chunkDuration.Observe(duration.Seconds())
}

// RecordBatch records a finished batch.
func (bm *BatchMetrics) RecordBatch(providers, items int, duration time.Duration) {
	bm.batchDuration.Observe(duration.Seconds())
	bm.batchItems.Set(float64(items))
	bm.batchProviders.Set(float64(providers))
}
