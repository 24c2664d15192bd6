// Package probe periodically checks which content providers answer the
// series listing, and exports the result as availability gauges.
//
// A run lists the provider manifest and then lists every provider's series
// through the batch aggregator. A provider is available when the listing
// succeeds, even with zero series. Providers that answer with the
// invalid-token signature are reported separately as auth_required.
package probe
