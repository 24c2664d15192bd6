package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/telemetry/logging"
	"quizhub/aggregator/pkg/telemetry/metrics"
	"quizhub/aggregator/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxRedirects caps the redirect hops followed for one upstream fetch.
const maxRedirects = 5

var (
	// ErrRedirectNotAllowed is returned when an upstream redirects to a host
	// or scheme outside the allowlist.
	ErrRedirectNotAllowed = errors.New("redirect target not allowed")

	// ErrTooManyRedirects is returned after maxRedirects hops.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Gateway fetches allowlisted third-party URLs on behalf of clients and
// reduces every failure to an Envelope. It holds no per-request state and
// never caches.
type Gateway struct {
	allowlist        *Allowlist
	client           *http.Client
	userAgent        string
	maxBodyBytes     int64
	missingURLStatus atomic.Int32
	logger           *slog.Logger
	metrics          *metrics.Collector
	tracer           *tracing.Tracer
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the outbound client. Redirects it follows are
// still checked against the allowlist.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithTracer sets the tracer used for upstream fetch spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// New creates a gateway from configuration.
func New(cfg config.GatewayConfig, opts ...Option) *Gateway {
	g := &Gateway{
		allowlist:    NewAllowlist(cfg.AllowedDomains),
		client:       &http.Client{Timeout: cfg.UpstreamTimeout},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       slog.Default(),
	}
	if g.userAgent == "" {
		g.userAgent = config.DefaultUserAgent
	}
	if g.maxBodyBytes <= 0 {
		g.maxBodyBytes = config.DefaultMaxBodyBytes
	}
	g.setMissingURLStatus(cfg.MissingURLStatus)

	for _, opt := range opts {
		opt(g)
	}
	g.client = g.guardRedirects(g.client)
	g.logger = g.logger.With("component", "gateway")
	return g
}

// guardRedirects returns a copy of c whose redirects must stay on http(s)
// allowlisted hosts. An existing CheckRedirect runs after the allowlist check.
func (g *Gateway) guardRedirects(c *http.Client) *http.Client {
	if c == nil {
		c = &http.Client{}
	}
	guarded := *c
	next := c.CheckRedirect
	guarded.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: stopped after %d hops", ErrTooManyRedirects, len(via))
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return fmt.Errorf("%w: scheme %q", ErrRedirectNotAllowed, req.URL.Scheme)
		}
		if !g.allowlist.Allowed(req.URL.Hostname()) {
			return fmt.Errorf("%w: host %q", ErrRedirectNotAllowed, req.URL.Hostname())
		}
		if next != nil {
			return next(req, via)
		}
		return nil
	}
	return &guarded
}

// Allowlist returns the live allowlist.
func (g *Gateway) Allowlist() *Allowlist {
	return g.allowlist
}

// Reload applies the parts of cfg that can change without a restart.
func (g *Gateway) Reload(cfg config.GatewayConfig) {
	g.allowlist.Replace(cfg.AllowedDomains)
	g.setMissingURLStatus(cfg.MissingURLStatus)
	g.logger.Info("gateway reloaded", "allowed_domains", g.allowlist.Domains())
}

func (g *Gateway) setMissingURLStatus(status int) {
	if status != http.StatusBadRequest {
		status = http.StatusOK
	}
	g.missingURLStatus.Store(int32(status))
}

// Proxy fetches target and returns the HTTP status and JSON body a client
// should receive.
func (g *Gateway) Proxy(ctx context.Context, target string) (int, []byte) {
	resp := g.Do(ctx, target)
	return resp.Status, resp.Body
}

// Do is Proxy with the outcome classification attached.
func (g *Gateway) Do(ctx context.Context, target string) Response {
	ctx, span := g.tracer.Start(ctx, "gateway.proxy", trace.WithSpanKind(trace.SpanKindInternal))
	start := time.Now()
	resp := g.do(ctx, target)
	g.metrics.RecordGatewayRequest(string(resp.Outcome), time.Since(start))
	span.SetAttributes(
		attribute.String(tracing.AttrOutcome, string(resp.Outcome)),
		attribute.Int(tracing.AttrHTTPStatus, resp.Status),
	)
	tracing.End(span, resp.Err)

	attrs := []any{
		"outcome", resp.Outcome,
		"status", resp.Status,
		"target", logging.RedactURL(target),
	}
	switch resp.Outcome {
	case OutcomeOK:
		g.logger.DebugContext(ctx, "proxy request served", attrs...)
	case OutcomeFetchError:
		g.logger.WarnContext(ctx, "proxy fetch failed", append(attrs, "error", resp.Err)...)
	default:
		g.logger.InfoContext(ctx, "proxy request degraded", attrs...)
	}
	return resp
}

func (g *Gateway) do(ctx context.Context, target string) Response {
	if target == "" {
		return envelopeResponse(int(g.missingURLStatus.Load()), OutcomeMissingURL, NewEnvelope(MsgMissingURL, ""), nil)
	}

	u, ok := parseTarget(target)
	if !ok {
		return envelopeResponse(http.StatusBadRequest, OutcomeInvalidURL, NewEnvelope(MsgInvalidURL, ""), nil)
	}

	if !g.allowlist.Allowed(u.Hostname()) {
		return envelopeResponse(http.StatusForbidden, OutcomeForbidden, NewEnvelope(MsgForbidden, ""), nil)
	}

	body, err := g.fetch(ctx, u)
	if errors.Is(err, ErrRedirectNotAllowed) {
		return envelopeResponse(http.StatusForbidden, OutcomeForbidden, NewEnvelope(MsgForbidden, ""), err)
	}
	if err != nil {
		return envelopeResponse(http.StatusOK, OutcomeFetchError, NewEnvelope(MsgFetchFailed, err.Error()), err)
	}

	if looksLikeHTML(body) {
		return envelopeResponse(http.StatusOK, OutcomeHTML, NewEnvelope(MsgHTMLPage, ""), nil)
	}
	if !json.Valid(body) {
		return envelopeResponse(http.StatusOK, OutcomeInvalidJSON, NewEnvelope(MsgInvalidJSON, ""), nil)
	}

	return Response{Status: http.StatusOK, Body: body, Outcome: OutcomeOK}
}

// parseTarget accepts only absolute http(s) URLs with a host.
func parseTarget(raw string) (*url.URL, bool) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}
