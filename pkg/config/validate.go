package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gateway.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateProbe(&cfg.Probe)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateGateway validates gateway configuration.
func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "gateway.listen_address",
			Message: "listen address is required",
		})
	}

	timeouts := []struct {
		field string
		value int64
	}{
		{"gateway.read_timeout", int64(cfg.ReadTimeout)},
		{"gateway.write_timeout", int64(cfg.WriteTimeout)},
		{"gateway.idle_timeout", int64(cfg.IdleTimeout)},
		{"gateway.shutdown_timeout", int64(cfg.ShutdownTimeout)},
		{"gateway.upstream_timeout", int64(cfg.UpstreamTimeout)},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	if cfg.MissingURLStatus != 200 && cfg.MissingURLStatus != 400 {
		errs = append(errs, FieldError{
			Field:   "gateway.missing_url_status",
			Message: fmt.Sprintf("invalid status %d: must be 200 or 400", cfg.MissingURLStatus),
		})
	}

	if len(cfg.AllowedDomains) == 0 {
		errs = append(errs, FieldError{
			Field:   "gateway.allowed_domains",
			Message: "at least one allowed domain is required",
		})
	}
	for i, d := range cfg.AllowedDomains {
		if strings.ContainsAny(d, "/:@ ") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("gateway.allowed_domains[%d]", i),
				Message: fmt.Sprintf("%q must be a bare host name", d),
			})
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{
				Field:   "gateway.rate_limit.requests_per_second",
				Message: "requests per second must be positive when rate limiting is enabled",
			})
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, FieldError{
				Field:   "gateway.rate_limit.burst",
				Message: "burst must be at least 1 when rate limiting is enabled",
			})
		}
	}
	for i, p := range cfg.RateLimit.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("gateway.rate_limit.trusted_proxies[%d]", i),
				Message: fmt.Sprintf("%q is not an IP address or CIDR", p),
			})
		}
	}

	return errs
}

// validateCatalog validates catalog client configuration.
func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError

	for field, raw := range map[string]string{
		"catalog.proxy_url":    cfg.ProxyURL,
		"catalog.manifest_url": cfg.ManifestURL,
		"catalog.base_url":     cfg.BaseURL,
	} {
		if msg := checkAbsoluteURL(raw); msg != "" {
			errs = append(errs, FieldError{Field: field, Message: msg})
		}
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "catalog.concurrency",
			Message: "concurrency must be at least 1",
		})
	}
	if cfg.ChunkDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "catalog.chunk_delay",
			Message: "chunk delay must be non-negative",
		})
	}

	return errs
}

func checkAbsoluteURL(raw string) string {
	if raw == "" {
		return "URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Sprintf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "URL must use http or https scheme"
	}
	if u.Host == "" {
		return "URL must include a host"
	}
	return ""
}

// validateProbe validates probe configuration.
func validateProbe(cfg *ProbeConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "probe.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
		})
	}

	h := &cfg.History
	switch h.Backend {
	case "memory":
	case "sqlite":
		if h.Driver != "sqlite" && h.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "probe.history.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", h.Driver),
			})
		}
		if h.Path == "" {
			errs = append(errs, FieldError{
				Field:   "probe.history.path",
				Message: "path is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "probe.history.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", h.Backend),
		})
	}
	if h.Retention < 0 {
		errs = append(errs, FieldError{
			Field:   "probe.history.retention",
			Message: "retention cannot be negative",
		})
	}
	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		for i := 1; i < len(cfg.Metrics.LatencyBuckets); i++ {
			if cfg.Metrics.LatencyBuckets[i] <= cfg.Metrics.LatencyBuckets[i-1] {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.latency_buckets",
					Message: "buckets must be strictly increasing",
				})
				break
			}
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0.0 and 1.0",
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	return errs
}
