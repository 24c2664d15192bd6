package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/gateway"
	"quizhub/aggregator/pkg/telemetry/logging"
)

// bridge imitates the manifest and the provider bridge endpoint.
func bridge(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/apis.json" {
			io.WriteString(w, `[
				{"name": "Alpha", "api": "https://alpha.test/"},
				{"name": "Locked", "api": "https://locked.test/"},
				{"name": "Beta", "api": "https://beta.test/"}
			]`)
			return
		}

		q := r.URL.Query()
		api := q.Get("bash_url")
		switch q.Get("action") {
		case "series":
			switch api {
			case "https://alpha.test/":
				io.WriteString(w, `{"data": [
					{"test_id": "a1", "series_name": "SSC Mock", "is_paid": 1, "price": 199, "total_tests": 10},
					{"test_id": "a2", "series_name": "Free Quiz", "is_paid": 0, "total_tests": 3}
				]}`)
			case "https://beta.test/":
				io.WriteString(w, `[{"id": "b1", "name": "Bank PO", "price": 99, "total_tests": 30}]`)
			default:
				io.WriteString(w, `{"msg": "Invalid Token"}`)
			}
		case "subjects":
			io.WriteString(w, `[{"subject_id": "s1", "subject_name": "Maths"}]`)
		case "titles":
			if q.Get("subject_id") != "s1" {
				io.WriteString(w, `[]`)
				return
			}
			io.WriteString(w, `[{"title_id": "t1", "title": "Mock 1", "questions_url": "x"}]`)
		default:
			if r.URL.Path == "/q.json" {
				io.WriteString(w, `[{"question": "2+2?", "options": ["3", "4"], "correct_answer": 1}]`)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<html>not found</html>`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstream string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Gateway.AllowedDomains = []string{"127.0.0.1"}
	cfg.Gateway.UpstreamTimeout = 2 * time.Second
	cfg.Catalog.ManifestURL = upstream + "/apis.json"
	cfg.Catalog.BaseURL = upstream + "/appx.php"
	cfg.Catalog.ChunkDelay = time.Millisecond
	cfg.Telemetry.Logging.Level = "error"
	return cfg
}

func testServer(t *testing.T, cfg *config.Config, opts ...Option) (*Server, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.New(cfg.Telemetry.Logging, &buf)
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}
	opts = append([]Option{WithVersion("1.0.0", "abc", "today")}, opts...)
	return New(cfg, logger, opts...), &buf
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_Proxy(t *testing.T) {
	up := bridge(t)
	s, _ := testServer(t, testConfig(up.URL))
	h := s.Handler()

	rec := get(t, h, "/proxy?url="+url.QueryEscape(up.URL+"/apis.json"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	rec = get(t, h, "/?url="+url.QueryEscape("https://evil.example.com/x"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("disallowed host status = %d, want 403", rec.Code)
	}
	var env gateway.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error != gateway.MsgForbidden {
		t.Errorf("envelope = %+v (%v)", env, err)
	}
}

func TestServer_Preflight(t *testing.T) {
	s, _ := testServer(t, testConfig("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/proxy", nil))

	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("OPTIONS = %d %q, want empty 200", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "apikey") {
		t.Errorf("allow headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}

func TestServer_APIProviders(t *testing.T) {
	up := bridge(t)
	s, _ := testServer(t, testConfig(up.URL))

	rec := get(t, s.Handler(), "/api/providers")
	var got []catalog.Provider
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body)
	}
	if len(got) != 3 {
		t.Errorf("got %d providers, want 3", len(got))
	}
}

func TestServer_APISeries(t *testing.T) {
	up := bridge(t)
	s, _ := testServer(t, testConfig(up.URL))
	h := s.Handler()

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"all providers", "", []string{"a1", "a2", "b1"}},
		{"paid sorted by price", "?price=paid&sort=price_low", []string{"b1", "a1"}},
		{"search", "?q=mock", []string{"a1"}},
		{"one provider", "?provider=beta", []string{"b1"}},
		{"most tests first", "?sort=tests", []string{"b1", "a1", "a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/api/series"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			var got []catalog.TestSeriesSummary
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d series, want %v", len(got), tt.wantIDs)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("series[%d] = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}

	rec := get(t, h, "/api/series")
	var all []catalog.TestSeriesSummary
	_ = json.Unmarshal(rec.Body.Bytes(), &all)
	if len(all) > 0 && (all[0].ProviderName != "Alpha" || all[0].ProviderAPI != "https://alpha.test/") {
		t.Errorf("series not stamped with provider: %+v", all[0])
	}

	rec = get(t, h, "/api/series?sort=newest")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad sort status = %d, want 400", rec.Code)
	}
}

func TestServer_APIDrillDown(t *testing.T) {
	up := bridge(t)
	s, _ := testServer(t, testConfig(up.URL))
	h := s.Handler()

	rec := get(t, h, "/api/subjects?api=https://alpha.test/&series=a1")
	var subjects []catalog.Subject
	if err := json.Unmarshal(rec.Body.Bytes(), &subjects); err != nil || len(subjects) != 1 || subjects[0].Name != "Maths" {
		t.Errorf("subjects = %+v (%v)", subjects, err)
	}

	rec = get(t, h, "/api/titles?api=https://alpha.test/&series=a1&subject=s1")
	var titles []catalog.TestTitle
	if err := json.Unmarshal(rec.Body.Bytes(), &titles); err != nil || len(titles) != 1 || titles[0].ID != "t1" {
		t.Errorf("titles = %+v (%v)", titles, err)
	}

	rec = get(t, h, "/api/questions?url="+url.QueryEscape(up.URL+"/q.json"))
	var questions []catalog.QuizQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &questions); err != nil || len(questions) != 1 || questions[0].CorrectAnswerID != "b" {
		t.Errorf("questions = %+v (%v)", questions, err)
	}

	rec = get(t, h, "/api/titles?api=https://alpha.test/&series=a1")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing subject status = %d, want 400", rec.Code)
	}
}

func TestServer_APIEmptyOnUpstreamFailure(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	s, _ := testServer(t, cfg)

	rec := get(t, s.Handler(), "/api/providers")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("got %d %s, want 200 []", rec.Code, rec.Body)
	}
}

func TestServer_HealthAndReady(t *testing.T) {
	s, _ := testServer(t, testConfig("http://127.0.0.1:1"))
	h := s.Handler()

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}
	if rec := get(t, h, "/ready"); rec.Code != http.StatusOK {
		t.Errorf("/ready = %d, body %s", rec.Code, rec.Body)
	}
	if rec := get(t, h, "/version"); !strings.Contains(rec.Body.String(), `"version":"1.0.0"`) {
		t.Errorf("/version = %s", rec.Body)
	}

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Gateway.AllowedDomains = nil
	s.Reload(cfg)
	if rec := get(t, s.Handler(), "/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready with empty allowlist = %d, want 503", rec.Code)
	}
}

func TestServer_Availability(t *testing.T) {
	up := bridge(t)
	s, _ := testServer(t, testConfig(up.URL))
	h := s.Handler()

	if rec := get(t, h, "/api/availability"); rec.Code != http.StatusNotFound {
		t.Errorf("before probe = %d, want 404", rec.Code)
	}

	if _, err := s.Prober().Run(context.Background()); err != nil {
		t.Fatalf("probe run: %v", err)
	}
	rec := get(t, h, "/api/availability")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"auth_required"`) {
		t.Errorf("after probe = %d %s", rec.Code, rec.Body)
	}
}

func TestServer_AvailabilityHistory(t *testing.T) {
	up := bridge(t)
	cfg := testConfig(up.URL)
	cfg.Probe.History.Backend = "sqlite"
	cfg.Probe.History.Path = filepath.Join(t.TempDir(), "history.db")
	s, _ := testServer(t, cfg)
	t.Cleanup(func() { _ = s.history.Close() })
	h := s.Handler()

	rec := get(t, h, "/api/availability/history")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("before probe = %d %s", rec.Code, rec.Body)
	}

	for range 2 {
		if _, err := s.Prober().Run(context.Background()); err != nil {
			t.Fatalf("probe run: %v", err)
		}
	}

	rec = get(t, h, "/api/availability/history?provider=Locked")
	var records []struct {
		RunID    string `json:"runId"`
		Provider string `json:"provider"`
		Status   string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v (%s)", err, rec.Body)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, r := range records {
		if r.Provider != "Locked" || r.Status != "auth_required" {
			t.Errorf("record = %+v", r)
		}
	}
	if records[0].RunID == records[1].RunID {
		t.Error("runs share a run id")
	}

	rec = get(t, h, "/api/availability/history?limit=1")
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("limit=1 returned %d records", len(records))
	}

	for _, bad := range []string{"limit=0", "limit=x", "since=yesterday"} {
		if rec := get(t, h, "/api/availability/history?"+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", bad, rec.Code)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	up := bridge(t)
	s, _ := testServer(t, testConfig(up.URL))
	h := s.Handler()

	get(t, h, "/proxy?url="+url.QueryEscape(up.URL+"/apis.json"))
	rec := get(t, h, "/metrics")
	if !strings.Contains(rec.Body.String(), "quizhub_aggregator_gateway_requests_total") {
		t.Errorf("metrics output missing gateway counter:\n%s", rec.Body)
	}

	cfg := testConfig(up.URL)
	cfg.Telemetry.Metrics.Enabled = false
	s2, _ := testServer(t, cfg)
	if rec := get(t, s2.Handler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("disabled metrics status = %d, want 404", rec.Code)
	}
}

func TestServer_ReloadAppliesAllowlistAndLevel(t *testing.T) {
	up := bridge(t)
	cfg := testConfig(up.URL)
	s, _ := testServer(t, cfg)

	next := testConfig(up.URL)
	next.Gateway.AllowedDomains = []string{"example.com"}
	next.Telemetry.Logging.Level = "debug"
	s.Reload(next)

	rec := get(t, s.Handler(), "/proxy?url="+url.QueryEscape(up.URL+"/apis.json"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status after reload = %d, want 403", rec.Code)
	}
	if s.logger.Level().String() != "DEBUG" {
		t.Errorf("level = %s, want DEBUG", s.logger.Level())
	}
	if s.Config() != next {
		t.Error("Config() should return the reloaded configuration")
	}
}

func TestServer_ReloadKeepsOverrides(t *testing.T) {
	up := bridge(t)
	cfg := testConfig(up.URL)
	cfg.Telemetry.Logging.Level = "debug"
	s, _ := testServer(t, cfg, WithOverrides(func(c *config.Config) {
		c.Telemetry.Logging.Level = "debug"
	}))

	next := testConfig(up.URL)
	next.Telemetry.Logging.Level = "warn"
	next.Gateway.AllowedDomains = []string{"example.com"}
	s.Reload(next)

	if s.logger.Level().String() != "DEBUG" {
		t.Errorf("level = %s, want the DEBUG override to survive reload", s.logger.Level())
	}
	if got := s.Config().Telemetry.Logging.Level; got != "debug" {
		t.Errorf("reloaded config level = %q, want debug", got)
	}
	rec := get(t, s.Handler(), "/proxy?url="+url.QueryEscape(up.URL+"/apis.json"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status after reload = %d, want the file's allowlist applied", rec.Code)
	}
}

func TestServer_RateLimited(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Gateway.RateLimit.Enabled = true
	cfg.Gateway.RateLimit.RequestsPerSecond = 1
	cfg.Gateway.RateLimit.Burst = 1
	s, _ := testServer(t, cfg)
	h := s.Handler()

	get(t, h, "/health")
	if rec := get(t, h, "/health"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", rec.Code)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Gateway.ListenAddress = "127.0.0.1:0"
	s, _ := testServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Addr() == "" {
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if s.IsRunning() {
		t.Error("IsRunning() after shutdown")
	}
}
