// Package middleware contains the HTTP middleware chain placed in front of
// the gateway and the JSON API: CORS, request IDs, logging, panic recovery,
// request deadlines and per-client rate limiting.
package middleware
