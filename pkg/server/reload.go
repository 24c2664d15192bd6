package server

import (
	"context"

	"quizhub/aggregator/pkg/config"
)

// Reload applies the parts of cfg that can change at runtime: the gateway
// allowlist and missing-url status, rate limits and the log level. The
// listen address, timeouts, log format and catalog settings need a
// restart. Overrides set with WithOverrides are applied to cfg first.
func (s *Server) Reload(cfg *config.Config) {
	logger := s.component("server")
	if s.overrides != nil {
		s.overrides(cfg)
	}

	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	s.gateway.Reload(cfg.Gateway)
	s.limiter.Update(cfg.Gateway.RateLimit)
	if err := s.logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		logger.Warn("log level not changed", "error", err)
	}

	if old.Gateway.ListenAddress != cfg.Gateway.ListenAddress ||
		old.Telemetry.Logging.Format != cfg.Telemetry.Logging.Format ||
		old.Catalog != cfg.Catalog {
		logger.Warn("some configuration changes take effect only after restart")
	}

	logger.Info("configuration reloaded",
		"allowed_domains", len(cfg.Gateway.AllowedDomains),
		"rate_limit", cfg.Gateway.RateLimit.Enabled,
		"log_level", cfg.Telemetry.Logging.Level,
	)
}

func (s *Server) watchConfig(ctx context.Context) error {
	w, err := config.NewWatcher(s.configPath, config.DefaultDebounceInterval, s.component("config"))
	if err != nil {
		return err
	}
	go func() {
		defer w.Stop()
		if err := w.Watch(ctx, s.Reload); err != nil {
			s.component("config").Error("config watcher stopped", "error", err)
		}
	}()
	return nil
}
