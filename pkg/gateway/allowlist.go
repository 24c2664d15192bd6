package gateway

import (
	"strings"
	"sync/atomic"
)

// Allowlist decides which upstream hosts the gateway may fetch. A host is
// allowed when it equals a listed domain or is a subdomain of one; the match
// is case-insensitive and only on label boundaries, so "example.com" admits
// "a.example.com" but never "badexample.com".
//
// The domain set can be replaced at runtime. Readers never block.
type Allowlist struct {
	domains atomic.Pointer[[]string]
}

// NewAllowlist creates an allowlist from domains.
func NewAllowlist(domains []string) *Allowlist {
	a := &Allowlist{}
	a.Replace(domains)
	return a
}

// Replace swaps the domain set atomically.
func (a *Allowlist) Replace(domains []string) {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = normalizeHost(d)
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	a.domains.Store(&normalized)
}

// Domains returns a copy of the current domain set.
func (a *Allowlist) Domains() []string {
	current := *a.domains.Load()
	out := make([]string, len(current))
	copy(out, current)
	return out
}

// Allowed reports whether host may be fetched.
func (a *Allowlist) Allowed(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	for _, domain := range *a.domains.Load() {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func normalizeHost(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, ".")
	return strings.TrimSuffix(h, ".")
}
