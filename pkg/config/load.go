package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "QUIZHUB_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML bytes into a Config and applies defaults.
// Boolean switches whose default is true are seeded before decoding so an
// explicit false in the file still wins.
func Parse(data []byte) (*Config, error) {
	cfg := Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	normalizeDomains(&cfg.Gateway)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention QUIZHUB_SECTION_FIELD (e.g., QUIZHUB_GATEWAY_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// A missing file is not an error: defaults plus environment are used, so the
// binary runs without any config on disk.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if _, statErr := os.Stat(path); statErr != nil && os.IsNotExist(statErr) {
		cfg = DefaultConfig()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)
	normalizeDomains(&cfg.Gateway)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Gateway overrides
	if val := os.Getenv(EnvPrefix + "GATEWAY_LISTEN_ADDRESS"); val != "" {
		cfg.Gateway.ListenAddress = val
	}
	if d, ok := envDuration("GATEWAY_UPSTREAM_TIMEOUT"); ok {
		cfg.Gateway.UpstreamTimeout = d
	}
	if d, ok := envDuration("GATEWAY_WRITE_TIMEOUT"); ok {
		cfg.Gateway.WriteTimeout = d
	}
	if val := os.Getenv(EnvPrefix + "GATEWAY_USER_AGENT"); val != "" {
		cfg.Gateway.UserAgent = val
	}
	if val := os.Getenv(EnvPrefix + "GATEWAY_ALLOWED_DOMAINS"); val != "" {
		cfg.Gateway.AllowedDomains = strings.Split(val, ",")
	}
	if val := os.Getenv(EnvPrefix + "GATEWAY_MISSING_URL_STATUS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Gateway.MissingURLStatus = i
		}
	}
	if val := os.Getenv(EnvPrefix + "GATEWAY_RATE_LIMIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Gateway.RateLimit.Enabled = b
		}
	}

	// Catalog overrides
	if val := os.Getenv(EnvPrefix + "CATALOG_PROXY_URL"); val != "" {
		cfg.Catalog.ProxyURL = val
	}
	if val := os.Getenv(EnvPrefix + "CATALOG_MANIFEST_URL"); val != "" {
		cfg.Catalog.ManifestURL = val
	}
	if val := os.Getenv(EnvPrefix + "CATALOG_BASE_URL"); val != "" {
		cfg.Catalog.BaseURL = val
	}
	if val := os.Getenv(EnvPrefix + "CATALOG_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Catalog.Concurrency = i
		}
	}
	if d, ok := envDuration("CATALOG_CHUNK_DELAY"); ok {
		cfg.Catalog.ChunkDelay = d
	}
	if d, ok := envDuration("CATALOG_REQUEST_TIMEOUT"); ok {
		cfg.Catalog.RequestTimeout = d
	}

	// Probe overrides
	if val := os.Getenv(EnvPrefix + "PROBE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Probe.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "PROBE_SCHEDULE"); val != "" {
		cfg.Probe.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

func envDuration(key string) (time.Duration, bool) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

// normalizeDomains lowercases and trims allowlist entries and drops blanks.
func normalizeDomains(cfg *GatewayConfig) {
	out := cfg.AllowedDomains[:0]
	for _, d := range cfg.AllowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, ".")
		if d != "" {
			out = append(out, d)
		}
	}
	cfg.AllowedDomains = out
}
