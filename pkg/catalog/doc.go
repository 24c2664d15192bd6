// Package catalog is the normalizing client for provider catalogs.
//
// Every call goes through the proxy gateway (over HTTP, or in-process via
// InProcess) and the payload is reshaped into one schema with alias tables:
// each output field lists the upstream keys it may arrive under, in
// priority order, and the first present value wins. Missing ids fall back
// to random UUIDs.
//
// Public list methods never return errors. A failure of any kind (transport,
// gateway envelope, invalid token, undecodable payload) is logged and
// collapses to an empty slice. The ...Result methods keep the error for
// callers that need to tell failure from emptiness.
package catalog
