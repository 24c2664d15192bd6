// Package batch aggregates test series across every provider.
//
// Providers are processed in consecutive chunks. All calls in a chunk run
// concurrently and the chunk waits for every one of them before the next
// chunk starts, after a short delay that keeps the upstream bridge from
// being flooded. Failures are logged and counted, and the provider simply
// contributes no items:
//
//	agg := batch.New(client.SeriesLister(), cfg.Catalog, logger, collector)
//	all := agg.FetchAll(ctx, providers, batch.WithProgress(func(p float64) {
//		fmt.Printf("%.0f%%\n", p)
//	}))
package batch
