// Package logging builds the process logger on top of log/slog.
//
// New returns a Logger whose level can be changed at runtime with SetLevel,
// which is how a config reload adjusts verbosity. The handler reads
// request_id and provider from the context, so calls such as
//
//	logger.InfoContext(ctx, "provider fetched", "items", n)
//
// carry those fields without passing them explicitly.
//
// RedactURL masks token-like query parameters before a URL is logged.
package logging
