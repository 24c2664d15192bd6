package metrics

import (
	"time"

	"quizhub/aggregator/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProbeMetrics tracks the scheduled availability probe.
type ProbeMetrics struct {
	available    *prometheus.GaugeVec
	runsTotal    prometheus.Counter
	runDuration  prometheus.Histogram
	lastRun      prometheus.Gauge
	upProviders  prometheus.Gauge
	allProviders prometheus.Gauge
}

// NewProbeMetrics creates and registers probe metrics with the provided registry.
func NewProbeMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProbeMetrics {
	pm := &ProbeMetrics{
		available: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_available",
				Help:      "Whether the provider returned series in the last probe (1 = yes)",
			},
			[]string{"provider"},
		),
		runsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probe_runs_total",
				Help:      "Total number of probe runs",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probe_duration_seconds",
				Help:      "Duration of probe runs",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probe_last_run_timestamp_seconds",
				Help:      "Unix time of the last completed probe",
			},
		),
		upProviders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probe_available_providers",
				Help:      "Providers available in the last probe",
			},
		),
		allProviders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "probe_providers",
				Help:      "Providers listed in the manifest at the last probe",
			},
		),
	}

	registry.MustRegister(
		pm.available,
		pm.runsTotal,
		pm.runDuration,
		pm.lastRun,
		pm.upProviders,
		pm.allProviders,
	)

	return pm
}

// SetAvailable sets the availability gauge for provider.
func (pm *ProbeMetrics) SetAvailable(provider string, available bool) {
	value := 0.0
	if available {
		value = 1.0
	}
	pm.available.WithLabelValues(provider).Set(value)
}

// RecordRun records a completed probe run.
func (pm *ProbeMetrics) RecordRun(duration time.Duration, available, total int) {
	pm.runsTotal.Inc()
	pm.runDuration.Observe(duration.Seconds())
	pm.lastRun.SetToCurrentTime()
	pm.upProviders.Set(float64(available))
	pm.allProviders.Set(float64(total))
}
