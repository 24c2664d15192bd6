package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/catalog/batch"
	"quizhub/aggregator/pkg/probe/history"
	"quizhub/aggregator/pkg/telemetry/metrics"
	"quizhub/aggregator/pkg/telemetry/tracing"
)

// Provider states reported by a probe run.
const (
	StatusAvailable   = "available"
	StatusAuth        = "auth_required"
	StatusUnavailable = "unavailable"
)

// ProviderSource lists the providers to probe.
type ProviderSource interface {
	ListProvidersResult(ctx context.Context) catalog.Result[[]catalog.Provider]
}

// ProviderStatus is the probe result for one provider.
type ProviderStatus struct {
	Name   string `json:"name"`
	API    string `json:"api"`
	Status string `json:"status"`
	Series int    `json:"series"`
	Error  string `json:"error,omitempty"`
}

// Report is the result of one probe run. No catalog data is kept, only
// per-provider counts.
type Report struct {
	RunID     string           `json:"runId"`
	StartedAt time.Time        `json:"startedAt"`
	Duration  time.Duration    `json:"durationNs"`
	Available int              `json:"available"`
	Providers []ProviderStatus `json:"providers"`
}

// Prober checks every provider by listing its series through the batch
// aggregator, so a probe run is paced exactly like a user-facing fetch.
type Prober struct {
	source      ProviderSource
	lister      catalog.SeriesLister
	concurrency int
	delay       time.Duration
	metrics     *metrics.Collector
	tracer      *tracing.Tracer
	logger      *slog.Logger

	history   history.Store
	retention time.Duration

	mu   sync.RWMutex
	last *Report
}

// Option configures a Prober.
type Option func(*Prober)

// WithHistory records every run in store and prunes records older than
// retention after each run. A zero retention keeps everything.
func WithHistory(store history.Store, retention time.Duration) Option {
	return func(p *Prober) {
		p.history = store
		p.retention = retention
	}
}

// NewProber creates a prober. agg supplies the lister, pacing and tracer;
// its own metrics and logger are not used for probe runs.
func NewProber(source ProviderSource, agg *batch.Aggregator, m *metrics.Collector, logger *slog.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Prober{
		source:      source,
		lister:      agg.Lister,
		concurrency: agg.Concurrency,
		delay:       agg.Delay,
		metrics:     m,
		tracer:      agg.Tracer,
		logger:      logger.With("component", "probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run probes every provider once and stores the report.
func (p *Prober) Run(ctx context.Context) (_ *Report, err error) {
	ctx, span := p.tracer.Start(ctx, "probe.run")
	defer func() { tracing.End(span, err) }()

	start := time.Now()

	providers, err := p.source.ListProvidersResult(ctx).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	statuses := make(map[string]*ProviderStatus, len(providers))
	var mu sync.Mutex

	recording := catalog.SeriesListerFunc(func(ctx context.Context, api string) ([]catalog.TestSeriesSummary, error) {
		items, err := p.lister.ListTestSeries(ctx, api)

		st := &ProviderStatus{API: api, Status: StatusAvailable, Series: len(items)}
		switch {
		case errors.Is(err, catalog.ErrAuthRequired):
			st.Status = StatusAuth
		case err != nil:
			st.Status = StatusUnavailable
			st.Error = err.Error()
		}
		mu.Lock()
		statuses[api] = st
		mu.Unlock()
		return items, err
	})

	agg := &batch.Aggregator{
		Lister:      recording,
		Concurrency: p.concurrency,
		Delay:       p.delay,
		Logger:      p.logger,
		Tracer:      p.tracer,
	}
	agg.FetchAll(ctx, providers)

	report := &Report{RunID: uuid.NewString(), StartedAt: start, Providers: make([]ProviderStatus, 0, len(providers))}
	for _, provider := range providers {
		st, ok := statuses[provider.API]
		if !ok {
			// Skipped by cancellation, or the lister panicked.
			st = &ProviderStatus{API: provider.API, Status: StatusUnavailable, Error: "not checked"}
		}
		st.Name = provider.Name
		report.Providers = append(report.Providers, *st)

		available := st.Status == StatusAvailable
		if available {
			report.Available++
		}
		p.metrics.SetProviderAvailable(provider.Name, available)
	}
	report.Duration = time.Since(start)
	p.metrics.RecordProbeRun(report.Duration, report.Available, len(providers))

	p.mu.Lock()
	p.last = report
	p.mu.Unlock()
	p.record(ctx, report)

	p.logger.InfoContext(ctx, "probe completed",
		"providers", len(providers),
		"available", report.Available,
		"duration", report.Duration,
	)
	return report, nil
}

// record appends report to the history store and prunes expired records.
// Store failures are logged and never fail the run.
func (p *Prober) record(ctx context.Context, report *Report) {
	if p.history == nil {
		return
	}
	records := make([]history.Record, 0, len(report.Providers))
	for _, st := range report.Providers {
		records = append(records, history.Record{
			RunID:    report.RunID,
			ProbedAt: report.StartedAt,
			Provider: st.Name,
			API:      st.API,
			Status:   st.Status,
			Series:   st.Series,
			Error:    st.Error,
		})
	}
	if err := p.history.Append(ctx, records); err != nil {
		p.logger.WarnContext(ctx, "probe history append failed", "error", err)
		return
	}
	if p.retention <= 0 {
		return
	}
	n, err := p.history.Prune(ctx, report.StartedAt.Add(-p.retention))
	if err != nil {
		p.logger.WarnContext(ctx, "probe history prune failed", "error", err)
		return
	}
	if n > 0 {
		p.logger.DebugContext(ctx, "probe history pruned", "records", n)
	}
}

// History returns recorded probe results, newest first. Without a history
// store it returns an empty slice.
func (p *Prober) History(ctx context.Context, q history.Query) ([]history.Record, error) {
	if p.history == nil {
		return []history.Record{}, nil
	}
	return p.history.Query(ctx, q)
}

// Last returns the most recent report, or nil before the first run.
func (p *Prober) Last() *Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
