package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/gateway"
	"quizhub/aggregator/pkg/telemetry/metrics"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	enabled  bool
	rate     rate.Limit
	burst    int
	trusted  []netip.Prefix
	idle     time.Duration
	metrics  *metrics.Collector
}

// NewRateLimiter creates a limiter allowing cfg.RequestsPerSecond with
// cfg.Burst for each client.
func NewRateLimiter(cfg config.RateLimitConfig, m *metrics.Collector) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		idle:     5 * time.Minute,
		metrics:  m,
	}
	rl.Update(cfg)
	return rl
}

// Update changes the limits and trusted proxies. Existing buckets are
// adjusted in place.
func (rl *RateLimiter) Update(cfg config.RateLimitConfig) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.enabled = cfg.Enabled
	rl.rate = rate.Limit(cfg.RequestsPerSecond)
	rl.burst = cfg.Burst
	rl.trusted = parsePrefixes(cfg.TrustedProxies)
	for _, cl := range rl.limiters {
		cl.limiter.SetLimit(rl.rate)
		cl.limiter.SetBurst(rl.burst)
	}
}

// Run evicts idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(time.Now())
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > rl.idle {
			delete(rl.limiters, key)
		}
	}
}

// allow reports whether key may proceed now.
func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	if !rl.enabled {
		rl.mu.Unlock()
		return true
	}
	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = time.Now()
	limiter := cl.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects over-limit clients with 429 and the standard envelope.
// OPTIONS preflights are never limited.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodOptions && !rl.allow(rl.clientKey(r)) {
			rl.metrics.RecordRateLimited()
			w.Header().Set("Retry-After", "1")
			gateway.WriteEnvelope(w, http.StatusTooManyRequests, gateway.NewEnvelope(gateway.MsgRateLimited, ""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the remote host. When the remote host is a trusted proxy,
// X-Forwarded-For is walked from the right and the first untrusted hop is
// used instead.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	rl.mu.Lock()
	trusted := rl.trusted
	rl.mu.Unlock()

	if len(trusted) == 0 || !isTrusted(trusted, host) {
		return host
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(trusted, hop) {
			return hop
		}
		host = hop
	}
	return host
}

func isTrusted(trusted []netip.Prefix, host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// parsePrefixes accepts CIDRs and bare addresses and skips anything else.
func parsePrefixes(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}
