package config

import "time"

// Config is the root configuration structure for the QuizHub aggregator.
// It contains all configuration sections for the proxy gateway, the catalog
// client, the availability probe, and telemetry.
type Config struct {
	// Gateway contains configuration for the proxy gateway HTTP server,
	// including listen address, timeouts, and the upstream host allowlist.
	Gateway GatewayConfig `yaml:"gateway"`

	// Catalog contains configuration for the normalizing catalog client and
	// the batch aggregator that fans out across providers.
	Catalog CatalogConfig `yaml:"catalog"`

	// Probe contains configuration for the scheduled provider availability probe.
	Probe ProbeConfig `yaml:"probe"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatewayConfig contains configuration for the proxy gateway.
type GatewayConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed UpstreamTimeout or slow upstreams will be cut off.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// UpstreamTimeout bounds each outbound fetch to a third-party origin.
	// Default: 20s
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`

	// MaxBodyBytes caps how much of an upstream body is read.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// UserAgent is sent on every outbound fetch. Several providers reject
	// requests without a browser-like agent.
	UserAgent string `yaml:"user_agent"`

	// MissingURLStatus is the HTTP status returned when the url parameter is
	// absent. Either 200 or 400.
	// Default: 200
	MissingURLStatus int `yaml:"missing_url_status"`

	// AllowedDomains lists trusted upstream domains. A host is allowed when it
	// equals one of these or is a subdomain of one.
	AllowedDomains []string `yaml:"allowed_domains"`

	// RateLimit contains per-client inbound rate limiting.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket in front of the gateway.
type RateLimitConfig struct {
	// Enabled controls whether inbound requests are rate limited.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained rate allowed per client address.
	// Default: 20
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the bucket size per client address.
	// Default: 40
	Burst int `yaml:"burst"`

	// TrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
	// header is believed. Requests from anywhere else are keyed on their
	// remote address.
	// Default: none
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// CatalogConfig contains configuration for the catalog client and aggregator.
type CatalogConfig struct {
	// ProxyURL is the gateway endpoint the client calls with ?url=.
	// Default: "http://127.0.0.1:8080/proxy"
	ProxyURL string `yaml:"proxy_url"`

	// ManifestURL is the static provider manifest.
	// Default: "https://studyuk.site/appxapis.json"
	ManifestURL string `yaml:"manifest_url"`

	// BaseURL is the provider bridge endpoint that takes bash_url and action.
	// Default: "https://studyuk.site/appx.php"
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds each client call to the gateway.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Concurrency is the aggregator chunk size.
	// Default: 5
	Concurrency int `yaml:"concurrency"`

	// ChunkDelay is the pause between aggregator chunks.
	// Default: 300ms
	ChunkDelay time.Duration `yaml:"chunk_delay"`
}

// ProbeConfig configures the scheduled provider availability probe.
type ProbeConfig struct {
	// Enabled controls whether the probe runs while serving.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a standard five-field cron expression.
	// Default: "*/30 * * * *"
	Schedule string `yaml:"schedule"`

	// History configures where probe results are kept.
	History HistoryConfig `yaml:"history"`
}

// HistoryConfig configures the probe history store. Only per-provider
// availability is stored, never catalog data.
type HistoryConfig struct {
	// Backend is "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Driver selects the SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: "data/probe-history.db"
	Path string `yaml:"path"`

	// Retention is how long records are kept. Older records are pruned after
	// each probe run.
	// Default: 168h
	Retention time.Duration `yaml:"retention"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes all metric names.
	// Default: "quizhub"
	Namespace string `yaml:"namespace"`

	// Subsystem is the second metric name component.
	// Default: "aggregator"
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets are histogram buckets in seconds for upstream latency.
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// TracingConfig contains distributed tracing configuration. Spans are
// exported over OTLP/gRPC.
type TracingConfig struct {
	// Enabled controls whether spans are recorded and exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is the sampling strategy: always, never or ratio.
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of new traces sampled by the ratio sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP collector address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service.name resource attribute.
	// Default: "quizhub-aggregator"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
