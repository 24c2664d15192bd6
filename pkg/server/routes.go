package server

import (
	"net/http"

	"quizhub/aggregator/pkg/gateway/middleware"
	"quizhub/aggregator/pkg/telemetry/health"
)

// Handler returns the full route table wrapped in the middleware chain:
// Recovery, RequestID, Tracing, Logging, CORS and RateLimit, outermost
// first.
func (s *Server) Handler() http.Handler {
	cfg := s.Config()
	mux := http.NewServeMux()

	mux.Handle("/proxy", s.gateway)
	// The bare root also proxies, for clients that call the gateway at "/".
	mux.Handle("/{$}", s.gateway)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/providers", s.handleProviders)
	api.HandleFunc("GET /api/series", s.handleSeries)
	api.HandleFunc("GET /api/subjects", s.handleSubjects)
	api.HandleFunc("GET /api/titles", s.handleTitles)
	api.HandleFunc("GET /api/questions", s.handleQuestions)
	api.HandleFunc("GET /api/availability", s.handleAvailability)
	api.HandleFunc("GET /api/availability/history", s.handleHistory)
	mux.Handle("/api/", middleware.Timeout(cfg.Gateway.WriteTimeout)(api))

	mux.Handle("/health", s.health.LivenessHandler())
	mux.Handle("/ready", s.health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.version.Version, s.version.Commit, s.version.BuildTime))

	if cfg.Telemetry.Metrics.Enabled {
		mux.Handle(cfg.Telemetry.Metrics.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = s.limiter.Middleware(handler)
	handler = middleware.CORS(middleware.DefaultCORSConfig())(handler)
	handler = middleware.Logging(s.component("http"))(handler)
	handler = s.tracer.Middleware(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(s.component("http"))(handler)
	return handler
}
