package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"quizhub/aggregator/pkg/telemetry/tracing"
)

// ErrBodyTooLarge is returned when an upstream body exceeds the configured limit.
type ErrBodyTooLarge struct {
	Limit int64
}

func (e *ErrBodyTooLarge) Error() string {
	return fmt.Sprintf("upstream body exceeds %d bytes", e.Limit)
}

// fetch issues the outbound GET and reads the whole body as bytes. The
// upstream Content-Type is not consulted.
func (g *Gateway) fetch(ctx context.Context, target *url.URL) (body []byte, err error) {
	ctx, span := g.tracer.Start(ctx, "gateway.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String(tracing.AttrServerHost, target.Hostname())),
	)
	defer func() { tracing.End(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")
	tracing.Inject(ctx, req.Header)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.RecordUpstreamFetch(target.Hostname(), 0, time.Since(start), 0)
		return nil, err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, g.maxBodyBytes+1))
	g.metrics.RecordUpstreamFetch(target.Hostname(), resp.StatusCode, time.Since(start), len(body))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > g.maxBodyBytes {
		return nil, &ErrBodyTooLarge{Limit: g.maxBodyBytes}
	}

	g.logger.DebugContext(ctx, "upstream fetched",
		"host", target.Hostname(),
		"status", resp.StatusCode,
		"bytes", len(body),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return body, nil
}

var htmlMarkers = [][]byte{
	[]byte("<!doctype"),
	[]byte("<html"),
	[]byte("<div"),
}

// looksLikeHTML reports whether body starts with an HTML document marker,
// ignoring leading whitespace and case.
func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 16 {
		trimmed = trimmed[:16]
	}
	head := bytes.ToLower(trimmed)
	for _, marker := range htmlMarkers {
		if bytes.HasPrefix(head, marker) {
			return true
		}
	}
	return false
}
