package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/telemetry/logging"
	"quizhub/aggregator/pkg/telemetry/metrics"
	"quizhub/aggregator/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Provider fetch outcomes recorded in metrics.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
	OutcomeAuth  = "auth"
)

// ProgressFunc receives the percentage of providers settled so far.
type ProgressFunc func(percent float64)

// Aggregator fans "list series" out across providers in fixed-size chunks.
// Each chunk is a barrier: the next one starts only after every call in the
// current chunk has settled and Delay has elapsed. A zero Delay means
// config.DefaultChunkDelay; a negative Delay disables the pause.
//
// An Aggregator holds no per-call state and may be shared.
type Aggregator struct {
	Lister      catalog.SeriesLister
	Concurrency int
	Delay       time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Collector
	Tracer      *tracing.Tracer
}

// New creates an aggregator from catalog configuration.
func New(lister catalog.SeriesLister, cfg config.CatalogConfig, logger *slog.Logger, m *metrics.Collector) *Aggregator {
	return &Aggregator{
		Lister:      lister,
		Concurrency: cfg.Concurrency,
		Delay:       cfg.ChunkDelay,
		Logger:      logger,
		Metrics:     m,
	}
}

// Option adjusts a single FetchAll call.
type Option func(*run)

// WithProgress reports progress after every chunk. Values never decrease
// and the last one is 100.
func WithProgress(fn ProgressFunc) Option {
	return func(r *run) { r.progress = fn }
}

// WithConcurrency overrides the chunk size for one call.
func WithConcurrency(n int) Option {
	return func(r *run) { r.concurrency = n }
}

type run struct {
	progress    ProgressFunc
	concurrency int
}

// outcome is what one provider produced within a chunk.
type outcome struct {
	items []catalog.TestSeriesSummary
	err   error
}

// FetchAll lists the series of every provider and returns them in provider
// order, each stamped with its provider. Failing providers contribute
// nothing and never abort the batch. If ctx is cancelled the remaining
// chunks are skipped and progress still ends at 100.
func (a *Aggregator) FetchAll(ctx context.Context, providers []catalog.Provider, opts ...Option) []catalog.TestSeriesSummary {
	results := []catalog.TestSeriesSummary{}
	if len(providers) == 0 {
		return results
	}

	r := run{concurrency: a.Concurrency}
	for _, opt := range opts {
		opt(&r)
	}
	size := r.concurrency
	if size < 1 {
		size = config.DefaultConcurrency
	}
	delay := a.Delay
	switch {
	case delay == 0:
		delay = config.DefaultChunkDelay
	case delay < 0:
		delay = 0
	}

	ctx, span := a.Tracer.Start(ctx, "batch.fetch_all")
	defer span.End()

	logger := a.logger()
	start := time.Now()
	total := len(providers)
	completed := 0

	for offset := 0; offset < total; offset += size {
		if offset > 0 && !sleep(ctx, delay) {
			logger.InfoContext(ctx, "batch cancelled", "completed", completed, "total", total)
			break
		}

		end := min(offset+size, total)
		chunk := providers[offset:end]

		chunkStart := time.Now()
		outcomes := a.runChunk(ctx, chunk)
		a.Metrics.RecordChunk(len(chunk), time.Since(chunkStart))

		for i, out := range outcomes {
			p := chunk[i]
			a.record(ctx, p, out)
			for _, item := range out.items {
				item.ProviderName = p.Name
				item.ProviderAPI = p.API
				results = append(results, item)
			}
		}

		completed += len(chunk)
		report(r.progress, float64(completed)/float64(total)*100)
	}

	if completed < total {
		report(r.progress, 100)
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrProviders, total),
		attribute.Int(tracing.AttrSeries, len(results)),
	)
	a.Metrics.RecordBatch(total, len(results), time.Since(start))
	logger.InfoContext(ctx, "batch completed",
		"providers", total,
		"items", len(results),
		"duration", time.Since(start),
	)
	return results
}

// runChunk calls the lister for every provider in chunk concurrently and
// waits for all of them.
func (a *Aggregator) runChunk(ctx context.Context, chunk []catalog.Provider) []outcome {
	outcomes := make([]outcome, len(chunk))
	var wg sync.WaitGroup

	for i, p := range chunk {
		wg.Add(1)
		go func(i int, p catalog.Provider) {
			defer wg.Done()
			outcomes[i] = a.list(ctx, p)
		}(i, p)
	}

	wg.Wait()
	return outcomes
}

func (a *Aggregator) list(ctx context.Context, p catalog.Provider) (out outcome) {
	ctx = logging.WithProvider(ctx, p.Name)
	ctx, span := a.Tracer.Start(ctx, "batch.list_series")
	span.SetAttributes(attribute.String(tracing.AttrProvider, p.Name))
	defer func() {
		if rec := recover(); rec != nil {
			out = outcome{err: fmt.Errorf("lister panic: %v", rec)}
		}
		tracing.End(span, out.err)
	}()

	items, err := a.Lister.ListTestSeries(ctx, p.API)
	return outcome{items: items, err: err}
}

func (a *Aggregator) record(ctx context.Context, p catalog.Provider, out outcome) {
	result := OutcomeOK
	switch {
	case errors.Is(out.err, catalog.ErrAuthRequired):
		result = OutcomeAuth
		a.logger().DebugContext(ctx, "provider requires authentication", "provider", p.Name)
	case out.err != nil:
		result = OutcomeError
		a.logger().WarnContext(ctx, "provider fetch failed",
			"provider", p.Name,
			"api", logging.RedactURL(p.API),
			"error", out.err,
		)
	case len(out.items) == 0:
		result = OutcomeEmpty
	}
	a.Metrics.RecordProviderFetch(p.Name, result, len(out.items))
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

func report(fn ProgressFunc, percent float64) {
	if fn != nil {
		fn(percent)
	}
}

// sleep waits for d or until ctx is done, reporting whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d == 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
