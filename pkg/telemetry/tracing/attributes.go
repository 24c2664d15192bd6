package tracing

// Span attribute keys. HTTP keys follow OpenTelemetry semantic conventions;
// domain keys use the quizhub.* namespace.
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrURLPath    = "url.path"
	AttrServerHost = "server.address"

	AttrOutcome   = "quizhub.gateway.outcome"
	AttrProvider  = "quizhub.provider"
	AttrProviders = "quizhub.batch.providers"
	AttrSeries    = "quizhub.batch.series"
)
