// Package config provides configuration management for the QuizHub aggregator.
//
// Configuration is loaded from a YAML file with environment variable
// overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("quizhub.yaml")
//
// A missing file is treated as an empty one, so defaults apply.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention QUIZHUB_SECTION_FIELD.
// For example:
//
//   - QUIZHUB_GATEWAY_LISTEN_ADDRESS overrides gateway.listen_address
//   - QUIZHUB_GATEWAY_ALLOWED_DOMAINS overrides gateway.allowed_domains (comma separated)
//   - QUIZHUB_CATALOG_CONCURRENCY overrides catalog.concurrency
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the file with fsnotify and invokes a callback with each
// freshly validated Config. Only the gateway allowlist and log level are
// applied live; listener and timeout changes need a restart.
//
// # Example Configuration
//
//	gateway:
//	  listen_address: "127.0.0.1:8080"
//	  allowed_domains:
//	    - studyuk.site
//	    - classx.co.in
//
//	catalog:
//	  proxy_url: "http://127.0.0.1:8080/proxy"
//	  concurrency: 5
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
