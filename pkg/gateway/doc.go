// Package gateway implements the proxy that is the only network egress to
// third-party content providers.
//
// A request names its target with ?url=. The host must be on the Allowlist
// or the gateway answers 403 without fetching anything. Fetched bodies are
// forwarded unchanged when they are JSON; HTML error pages, invalid JSON
// and transport failures all become an Envelope with an empty data array
// and status 200, so callers handle every degraded case the same way.
//
//	gw := gateway.New(cfg.Gateway, gateway.WithMetrics(collector))
//	mux.Handle("/proxy", gw)
package gateway
