package loader

import (
	"context"
	"errors"
	"sync"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/catalog/batch"
)

// ErrProvidersUnavailable is the state error when the provider manifest
// cannot be loaded.
var ErrProvidersUnavailable = errors.New("Failed to load API providers")

// State is a point-in-time view of a loader.
type State[T any] struct {
	Loading  bool
	Data     T
	Err      error
	Progress float64
}

// FetchFunc produces a loader's data. report may be called with progress
// percentages while it runs.
type FetchFunc[T any] func(ctx context.Context, report func(percent float64)) (T, error)

// Loader runs a fetch and tracks its loading, data, error and progress
// state. Load calls are not de-duplicated; each one runs to completion and
// the last to finish owns the final state.
type Loader[T any] struct {
	fetch FetchFunc[T]

	mu    sync.RWMutex
	state State[T]
}

// New creates a loader around fetch.
func New[T any](fetch FetchFunc[T]) *Loader[T] {
	return &Loader[T]{fetch: fetch}
}

// Load runs the fetch and returns the resulting state. Data from a
// previous successful load is kept while loading and replaced on success.
func (l *Loader[T]) Load(ctx context.Context) State[T] {
	l.mu.Lock()
	l.state.Loading = true
	l.state.Err = nil
	l.state.Progress = 0
	l.mu.Unlock()

	data, err := l.fetch(ctx, l.setProgress)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Loading = false
	if err != nil {
		l.state.Err = err
		return l.state
	}
	l.state.Data = data
	l.state.Progress = 100
	return l.state
}

// Retry loads again. It exists so callers can express intent after an
// error; it behaves exactly like Load.
func (l *Loader[T]) Retry(ctx context.Context) State[T] {
	return l.Load(ctx)
}

// Snapshot returns the current state without loading.
func (l *Loader[T]) Snapshot() State[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loader[T]) setProgress(percent float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if percent > l.state.Progress {
		l.state.Progress = percent
	}
}

// ProviderSource lists providers and reports failure.
type ProviderSource interface {
	ListProvidersResult(ctx context.Context) catalog.Result[[]catalog.Provider]
}

// NewProviders loads the provider manifest. A failed manifest fetch sets
// ErrProvidersUnavailable, wrapping the cause.
func NewProviders(src ProviderSource) *Loader[[]catalog.Provider] {
	return New(func(ctx context.Context, _ func(float64)) ([]catalog.Provider, error) {
		providers, err := src.ListProvidersResult(ctx).Unwrap()
		if err != nil {
			return []catalog.Provider{}, errors.Join(ErrProvidersUnavailable, err)
		}
		return providers, nil
	})
}

// NewAllSeries loads every provider's series through the aggregator. The
// provider list comes from providers, loading it first if it has no data
// yet. Partial provider failures never set an error.
func NewAllSeries(agg *batch.Aggregator, providers *Loader[[]catalog.Provider]) *Loader[[]catalog.TestSeriesSummary] {
	return New(func(ctx context.Context, report func(float64)) ([]catalog.TestSeriesSummary, error) {
		ps := providers.Snapshot()
		if ps.Data == nil {
			ps = providers.Load(ctx)
		}
		if ps.Err != nil && ps.Data == nil {
			return []catalog.TestSeriesSummary{}, ps.Err
		}
		return agg.FetchAll(ctx, ps.Data, batch.WithProgress(batch.ProgressFunc(report))), nil
	})
}
