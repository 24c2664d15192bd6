package config

import "time"

// Default values for configuration fields.
const (
	// Gateway defaults
	DefaultListenAddress    = "127.0.0.1:8080"
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 30 * time.Second
	DefaultIdleTimeout      = 120 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultUpstreamTimeout  = 20 * time.Second
	DefaultMaxBodyBytes     = int64(10 << 20)
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultMissingURLStatus = 200
	DefaultRateLimitRPS     = 20.0
	DefaultRateLimitBurst   = 40

	// Catalog defaults
	DefaultProxyURL       = "http://127.0.0.1:8080/proxy"
	DefaultManifestURL    = "https://studyuk.site/appxapis.json"
	DefaultBaseURL        = "https://studyuk.site/appx.php"
	DefaultRequestTimeout = 30 * time.Second
	DefaultConcurrency    = 5
	DefaultChunkDelay     = 300 * time.Millisecond

	// Probe defaults
	DefaultProbeSchedule    = "*/30 * * * *"
	DefaultHistoryBackend   = "memory"
	DefaultHistoryDriver    = "sqlite"
	DefaultHistoryPath      = "data/probe-history.db"
	DefaultHistoryRetention = 7 * 24 * time.Hour
	DefaultBusyTimeout      = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "quizhub"
	DefaultMetricsSubsystem = "aggregator"
	DefaultTracingSampler   = "ratio"
	DefaultSampleRatio      = 0.1
	DefaultServiceName      = "quizhub-aggregator"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
)

// DefaultAllowedDomains returns the trusted content-provider domains.
// classx.co.in also covers the testseries-assets host that serves
// per-title question files.
func DefaultAllowedDomains() []string {
	return []string{
		"studyuk.site",
		"classx.co.in",
		"testseries-assets.classx.co.in",
		"appx.co.in",
		"akamai.net.in",
	}
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Gateway defaults
	if cfg.Gateway.ListenAddress == "" {
		cfg.Gateway.ListenAddress = DefaultListenAddress
	}
	if cfg.Gateway.ReadTimeout == 0 {
		cfg.Gateway.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Gateway.WriteTimeout == 0 {
		cfg.Gateway.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Gateway.IdleTimeout == 0 {
		cfg.Gateway.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Gateway.ShutdownTimeout == 0 {
		cfg.Gateway.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Gateway.UpstreamTimeout == 0 {
		cfg.Gateway.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if cfg.Gateway.MaxBodyBytes == 0 {
		cfg.Gateway.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Gateway.UserAgent == "" {
		cfg.Gateway.UserAgent = DefaultUserAgent
	}
	if cfg.Gateway.MissingURLStatus == 0 {
		cfg.Gateway.MissingURLStatus = DefaultMissingURLStatus
	}
	if len(cfg.Gateway.AllowedDomains) == 0 {
		cfg.Gateway.AllowedDomains = DefaultAllowedDomains()
	}
	if cfg.Gateway.RateLimit.RequestsPerSecond == 0 {
		cfg.Gateway.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.Gateway.RateLimit.Burst == 0 {
		cfg.Gateway.RateLimit.Burst = DefaultRateLimitBurst
	}

	// Catalog defaults
	if cfg.Catalog.ProxyURL == "" {
		cfg.Catalog.ProxyURL = DefaultProxyURL
	}
	if cfg.Catalog.ManifestURL == "" {
		cfg.Catalog.ManifestURL = DefaultManifestURL
	}
	if cfg.Catalog.BaseURL == "" {
		cfg.Catalog.BaseURL = DefaultBaseURL
	}
	if cfg.Catalog.RequestTimeout == 0 {
		cfg.Catalog.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Catalog.Concurrency == 0 {
		cfg.Catalog.Concurrency = DefaultConcurrency
	}
	if cfg.Catalog.ChunkDelay == 0 {
		cfg.Catalog.ChunkDelay = DefaultChunkDelay
	}

	// Probe defaults
	if cfg.Probe.Schedule == "" {
		cfg.Probe.Schedule = DefaultProbeSchedule
	}
	if cfg.Probe.History.Backend == "" {
		cfg.Probe.History.Backend = DefaultHistoryBackend
	}
	if cfg.Probe.History.Driver == "" {
		cfg.Probe.History.Driver = DefaultHistoryDriver
	}
	if cfg.Probe.History.Path == "" {
		cfg.Probe.History.Path = DefaultHistoryPath
	}
	if cfg.Probe.History.Retention == 0 {
		cfg.Probe.History.Retention = DefaultHistoryRetention
	}
	if cfg.Probe.History.BusyTimeout == 0 {
		cfg.Probe.History.BusyTimeout = DefaultBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.LatencyBuckets) == 0 {
		cfg.Telemetry.Metrics.LatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20}
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
		if cfg.Telemetry.Tracing.SampleRatio == 0 {
			cfg.Telemetry.Tracing.SampleRatio = DefaultSampleRatio
		}
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
