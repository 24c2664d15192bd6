package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/catalog/batch"
	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/gateway"
	"quizhub/aggregator/pkg/gateway/middleware"
	"quizhub/aggregator/pkg/probe"
	"quizhub/aggregator/pkg/probe/history"
	"quizhub/aggregator/pkg/telemetry/health"
	"quizhub/aggregator/pkg/telemetry/logging"
	"quizhub/aggregator/pkg/telemetry/metrics"
	"quizhub/aggregator/pkg/telemetry/tracing"
)

// Server hosts the proxy gateway and the aggregator JSON API.
type Server struct {
	mu  sync.RWMutex
	cfg *config.Config

	logger     *logging.Logger
	metrics    *metrics.Collector
	tracer     *tracing.Tracer
	gateway    *gateway.Gateway
	limiter    *middleware.RateLimiter
	client     *catalog.Client
	aggregator *batch.Aggregator
	health     *health.Checker
	prober     *probe.Prober
	scheduler  *probe.Scheduler
	history    history.Store

	configPath string
	overrides  func(*config.Config)
	version    health.VersionInfo
	upstream   *http.Client

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	isRunning    bool
}

// Option configures a Server.
type Option func(*Server)

// WithConfigPath enables hot reload of the given configuration file.
func WithConfigPath(path string) Option {
	return func(s *Server) { s.configPath = path }
}

// WithOverrides sets a function applied to every reloaded configuration
// before it takes effect, so command-line flags survive a reload.
func WithOverrides(fn func(*config.Config)) Option {
	return func(s *Server) { s.overrides = fn }
}

// WithVersion sets the build information served on /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = health.VersionInfo{Version: version, Commit: commit, BuildTime: buildTime}
	}
}

// WithUpstreamClient replaces the gateway's outbound HTTP client.
func WithUpstreamClient(c *http.Client) Option {
	return func(s *Server) { s.upstream = c }
}

// New wires every component from cfg. The catalog client used by the API
// calls the gateway in-process rather than over HTTP. A tracer that cannot
// be created is logged and replaced by a noop tracer.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) *Server {
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		limiter: middleware.NewRateLimiter(cfg.Gateway.RateLimit, collector),
		health:  health.New(2 * time.Second),
		version: health.VersionInfo{Version: "dev"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tracer = s.newTracer()
	gwOpts := []gateway.Option{
		gateway.WithLogger(logger.Logger),
		gateway.WithMetrics(collector),
		gateway.WithTracer(s.tracer),
	}
	if s.upstream != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(s.upstream))
	}
	s.gateway = gateway.New(cfg.Gateway, gwOpts...)

	s.client = catalog.NewClient(cfg.Catalog,
		catalog.WithTransport(catalog.InProcess(s.gateway)),
		catalog.WithLogger(logger.Logger),
	)
	s.aggregator = batch.New(s.client.SeriesLister(), cfg.Catalog, logger.Logger, collector)
	s.aggregator.Tracer = s.tracer
	s.history = s.openHistory()
	s.prober = probe.NewProber(s.client, s.aggregator, collector, logger.Logger,
		probe.WithHistory(s.history, cfg.Probe.History.Retention))
	s.scheduler = probe.NewScheduler(s.prober, cfg.Probe.Schedule)

	s.registerChecks()
	return s
}

func (s *Server) newTracer() *tracing.Tracer {
	t, err := tracing.New(context.Background(), s.cfg.Telemetry.Tracing, s.version.Version)
	if err != nil {
		s.logger.Warn("tracing disabled", "error", err)
		return tracing.Noop()
	}
	return t
}

// openHistory opens the configured probe history store, falling back to
// memory when it cannot be opened.
func (s *Server) openHistory() history.Store {
	store, err := history.Open(s.cfg.Probe.History)
	if err != nil {
		s.logger.Error("probe history store unavailable, using memory", "backend", s.cfg.Probe.History.Backend, "error", err)
		return history.NewMemoryStore()
	}
	return store
}

func (s *Server) registerChecks() {
	s.health.Register("allowlist", func(context.Context) error {
		if len(s.gateway.Allowlist().Domains()) == 0 {
			return errors.New("no allowed domains configured")
		}
		return nil
	})
	s.health.Register("providers", func(context.Context) error {
		report := s.prober.Last()
		if report == nil || len(report.Providers) == 0 {
			return nil
		}
		if report.Available == 0 {
			return fmt.Errorf("none of %d providers answered the last probe", len(report.Providers))
		}
		return nil
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	handler := s.Handler()

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	cfg := s.cfg
	s.httpServer = &http.Server{
		Addr:         cfg.Gateway.ListenAddress,
		Handler:      handler,
		ReadTimeout:  cfg.Gateway.ReadTimeout,
		WriteTimeout: cfg.Gateway.WriteTimeout,
		IdleTimeout:  cfg.Gateway.IdleTimeout,
	}
	ln, err := net.Listen("tcp", cfg.Gateway.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", cfg.Gateway.ListenAddress, err)
	}
	s.listener = ln
	s.isRunning = true
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.limiter.Run(runCtx)

	if cfg.Probe.Enabled {
		if err := s.scheduler.Start(runCtx); err != nil {
			s.logger.Error("probe scheduler not started", "error", err)
		}
	}

	if s.configPath != "" {
		if err := s.watchConfig(runCtx); err != nil {
			s.logger.Warn("config hot reload disabled", "path", s.configPath, "error", err)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server",
			"address", ln.Addr().String(),
			"allowed_domains", len(s.gateway.Allowlist().Domains()),
			"rate_limit", cfg.Gateway.RateLimit.Enabled,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		timeout := s.cfg.Gateway.ShutdownTimeout
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
		s.scheduler.Stop()
		if err := s.history.Close(); err != nil {
			s.logger.Warn("probe history close failed", "error", err)
		}
		if err := s.tracer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("tracer shutdown failed", "error", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// Addr returns the bound listen address once Start has begun serving.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Gateway returns the proxy gateway.
func (s *Server) Gateway() *gateway.Gateway {
	return s.gateway
}

// Prober returns the availability prober.
func (s *Server) Prober() *probe.Prober {
	return s.prober
}

func (s *Server) component(name string) *slog.Logger {
	return s.logger.With("component", name)
}
