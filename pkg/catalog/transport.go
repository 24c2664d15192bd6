package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Transport fetches a third-party URL through the proxy gateway and
// returns the gateway's response body.
type Transport interface {
	Fetch(ctx context.Context, target string) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, target string) ([]byte, error)

// Fetch calls f.
func (f TransportFunc) Fetch(ctx context.Context, target string) ([]byte, error) {
	return f(ctx, target)
}

// Proxier is the in-process gateway surface.
type Proxier interface {
	Proxy(ctx context.Context, target string) (int, []byte)
}

// InProcess calls a gateway directly, without HTTP. The gateway status is
// not needed: failures are carried by the envelope in the body.
func InProcess(p Proxier) Transport {
	return TransportFunc(func(ctx context.Context, target string) ([]byte, error) {
		_, body := p.Proxy(ctx, target)
		return body, nil
	})
}

// HTTPTransport calls a gateway at proxyURL with ?url=<target>.
type HTTPTransport struct {
	ProxyURL string
	Client   *http.Client
	MaxBytes int64
}

// Fetch implements Transport.
func (t *HTTPTransport) Fetch(ctx context.Context, target string) ([]byte, error) {
	u, err := url.Parse(t.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := t.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	return body, nil
}
