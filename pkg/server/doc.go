// Package server hosts the proxy gateway and the aggregator JSON API on one
// listener.
//
// # Routes
//
//	/proxy, /               gateway: ?url=<allowlisted URL>
//	/api/providers          provider manifest
//	/api/series             all providers' series; q, price, sort, provider
//	/api/subjects           api, series
//	/api/titles             api, series, subject
//	/api/questions          url
//	/api/availability       last probe report
//	/health, /ready         liveness and readiness
//	/version                build information
//	/metrics                Prometheus, when enabled
//
// The API handlers use a catalog client whose transport calls the gateway
// in-process, so API traffic obeys the same allowlist as /proxy.
//
// # Lifecycle
//
//	srv := server.New(cfg, logger, server.WithConfigPath(path))
//	if err := srv.Start(ctx); err != nil {
//		return err
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully. With
// a config path, file changes are applied by Reload without a restart.
package server
