package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/telemetry/logging"
)

// Client calls the gateway for each catalog operation and normalizes the
// heterogeneous provider payloads. Construct one per process and share it.
//
// The plain methods never fail: any error is logged and an empty slice is
// returned. The ...Result variants expose the error for callers that track
// failure separately.
type Client struct {
	transport   Transport
	manifestURL string
	baseURL     string
	timeout     time.Duration
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport replaces the default HTTP transport, for example with
// InProcess(gateway) when the client runs inside the gateway server.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) { c.transport = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client from catalog configuration.
func NewClient(cfg config.CatalogConfig, opts ...ClientOption) *Client {
	c := &Client{
		manifestURL: cfg.ManifestURL,
		baseURL:     cfg.BaseURL,
		timeout:     cfg.RequestTimeout,
		logger:      slog.Default(),
	}
	if c.manifestURL == "" {
		c.manifestURL = config.DefaultManifestURL
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultRequestTimeout
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		proxyURL := cfg.ProxyURL
		if proxyURL == "" {
			proxyURL = config.DefaultProxyURL
		}
		c.transport = &HTTPTransport{
			ProxyURL: proxyURL,
			Client:   &http.Client{Timeout: c.timeout},
		}
	}
	c.logger = c.logger.With("component", "catalog")
	return c
}

// ListProviders returns the provider manifest, or an empty slice.
func (c *Client) ListProviders(ctx context.Context) []Provider {
	return collapse(ctx, c, "list providers", c.ListProvidersResult(ctx))
}

// ListProvidersResult returns the provider manifest. Entries without an
// api URL are skipped.
func (c *Client) ListProvidersResult(ctx context.Context) Result[[]Provider] {
	return fetchList(ctx, c, "list providers", c.manifestURL, func(r record) (Provider, bool) {
		p := Provider{}
		p.Name, _ = asString(r["name"])
		p.API, _ = asString(r["api"])
		return p, p.API != ""
	})
}

// ListTestSeries returns the normalized series of one provider, or an
// empty slice.
func (c *Client) ListTestSeries(ctx context.Context, providerAPI string) []TestSeriesSummary {
	return collapse(ctx, c, "list series", c.ListTestSeriesResult(ctx, providerAPI))
}

// ListTestSeriesResult is ListTestSeries with the error exposed.
func (c *Client) ListTestSeriesResult(ctx context.Context, providerAPI string) Result[[]TestSeriesSummary] {
	target := c.actionURL(providerAPI, "series", nil)
	return fetchList(ctx, c, "list series", target, keep(NormalizeSeries))
}

// ListSubjects returns the subjects of one series, or an empty slice.
func (c *Client) ListSubjects(ctx context.Context, providerAPI, seriesID string) []Subject {
	return collapse(ctx, c, "list subjects", c.ListSubjectsResult(ctx, providerAPI, seriesID))
}

// ListSubjectsResult is ListSubjects with the error exposed.
func (c *Client) ListSubjectsResult(ctx context.Context, providerAPI, seriesID string) Result[[]Subject] {
	target := c.actionURL(providerAPI, "subjects", [][2]string{{"test_id", seriesID}})
	return fetchList(ctx, c, "list subjects", target, keep(NormalizeSubject))
}

// ListTestTitles returns the tests of one subject, or an empty slice.
func (c *Client) ListTestTitles(ctx context.Context, providerAPI, seriesID, subjectID string) []TestTitle {
	return collapse(ctx, c, "list titles", c.ListTestTitlesResult(ctx, providerAPI, seriesID, subjectID))
}

// ListTestTitlesResult is ListTestTitles with the error exposed.
func (c *Client) ListTestTitlesResult(ctx context.Context, providerAPI, seriesID, subjectID string) Result[[]TestTitle] {
	target := c.actionURL(providerAPI, "titles", [][2]string{{"test_id", seriesID}, {"subject_id", subjectID}})
	return fetchList(ctx, c, "list titles", target, keep(NormalizeTitle))
}

// FetchQuizQuestions returns the questions at a title's questions URL, or
// an empty slice.
func (c *Client) FetchQuizQuestions(ctx context.Context, questionsURL string) []QuizQuestion {
	return collapse(ctx, c, "fetch questions", c.FetchQuizQuestionsResult(ctx, questionsURL))
}

// FetchQuizQuestionsResult is FetchQuizQuestions with the error exposed.
func (c *Client) FetchQuizQuestionsResult(ctx context.Context, questionsURL string) Result[[]QuizQuestion] {
	return fetchList(ctx, c, "fetch questions", questionsURL, keep(NormalizeQuestion))
}

// actionURL builds baseURL?bash_url=<api>&action=<action>&extra...
func (c *Client) actionURL(providerAPI, action string, extra [][2]string) string {
	var sb strings.Builder
	sb.WriteString(c.baseURL)
	if strings.Contains(c.baseURL, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	sb.WriteString("bash_url=")
	sb.WriteString(url.QueryEscape(providerAPI))
	sb.WriteString("&action=")
	sb.WriteString(action)
	for _, kv := range extra {
		sb.WriteByte('&')
		sb.WriteString(kv[0])
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv[1]))
	}
	return sb.String()
}

func keep[T any](f func(record) T) func(record) (T, bool) {
	return func(r record) (T, bool) { return f(r), true }
}

func fetchList[T any](ctx context.Context, c *Client, op, target string, convert func(record) (T, bool)) Result[[]T] {
	if target == "" {
		return Fail[[]T](&OperationError{Op: op, Err: errors.New("empty target url")})
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.transport.Fetch(ctx, target)
	if err != nil {
		return Fail[[]T](&OperationError{Op: op, Target: target, Err: err})
	}

	records, err := extractRecords(body)
	if err != nil {
		return Fail[[]T](&OperationError{Op: op, Target: target, Err: err})
	}

	out := make([]T, 0, len(records))
	for _, r := range records {
		if v, ok := convert(r); ok {
			out = append(out, v)
		}
	}
	return Ok(out)
}

// collapse logs a failed result and returns an empty, non-nil slice.
func collapse[T any](ctx context.Context, c *Client, op string, r Result[[]T]) []T {
	if r.Err == nil {
		return r.Value
	}

	target := ""
	var opErr *OperationError
	if errors.As(r.Err, &opErr) {
		target = logging.RedactURL(opErr.Target)
	}

	if errors.Is(r.Err, ErrAuthRequired) {
		c.logger.DebugContext(ctx, "provider requires authentication", "op", op, "target", target)
	} else {
		c.logger.WarnContext(ctx, "catalog request failed", "op", op, "target", target, "error", r.Err)
	}
	return []T{}
}

// SeriesLister lists the series of one provider and reports failures.
type SeriesLister interface {
	ListTestSeries(ctx context.Context, providerAPI string) ([]TestSeriesSummary, error)
}

// SeriesListerFunc adapts a function to SeriesLister.
type SeriesListerFunc func(ctx context.Context, providerAPI string) ([]TestSeriesSummary, error)

// ListTestSeries calls f.
func (f SeriesListerFunc) ListTestSeries(ctx context.Context, providerAPI string) ([]TestSeriesSummary, error) {
	return f(ctx, providerAPI)
}

// SeriesLister adapts the client for the batch aggregator.
func (c *Client) SeriesLister() SeriesLister {
	return SeriesListerFunc(func(ctx context.Context, providerAPI string) ([]TestSeriesSummary, error) {
		return c.ListTestSeriesResult(ctx, providerAPI).Unwrap()
	})
}
