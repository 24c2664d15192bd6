package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizhub/aggregator/pkg/config"
	"quizhub/aggregator/pkg/gateway"
	"quizhub/aggregator/pkg/telemetry/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
})

func TestCORS(t *testing.T) {
	wrapped := CORS(DefaultCORSConfig())(okHandler)

	t.Run("adds permissive headers to every response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/proxy", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
		}
		want := "authorization, x-client-info, apikey, content-type"
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != want {
			t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, want)
		}
		if w.Body.String() != "OK" {
			t.Errorf("body = %q, handler should run", w.Body.String())
		}
	})

	t.Run("answers preflight with empty 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/proxy", nil)
		req.Header.Set("Origin", "https://quiz.example")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("preflight should carry CORS headers")
		}
	})

	t.Run("echoes listed origin", func(t *testing.T) {
		cfg := &CORSConfig{AllowedOrigins: []string{"https://quiz.example"}}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://quiz.example")
		w := httptest.NewRecorder()
		CORS(cfg)(okHandler).ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://quiz.example" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	wrapped := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if len(seen) != 36 {
			t.Errorf("request id %q is not a uuid", seen)
		}
		if w.Header().Get(RequestIDHeader) != seen {
			t.Errorf("header = %q, context = %q", w.Header().Get(RequestIDHeader), seen)
		}
	})

	t.Run("reuses client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-123")
		wrapped.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "client-123" {
			t.Errorf("request id = %q, want client-123", seen)
		}
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
		wrapped.ServeHTTP(httptest.NewRecorder(), req)

		if len(seen) != 36 {
			t.Errorf("oversized id should be replaced, got length %d", len(seen))
		}
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	req := httptest.NewRequest(http.MethodGet, "/proxy?url=https%3A%2F%2Fx.example%2F%3Ftoken%3Dsecret", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log is not JSON: %v", err)
	}
	if record["level"] != "WARN" {
		t.Errorf("level = %v, want WARN for 403", record["level"])
	}
	if record["status"] != float64(http.StatusForbidden) {
		t.Errorf("status = %v", record["status"])
	}
	if strings.Contains(buf.String(), "secret") {
		t.Errorf("token leaked into log: %s", buf.String())
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	wrapped := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/proxy", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var env gateway.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an envelope: %v", err)
	}
	if env.Error != gateway.MsgFetchFailed || !strings.Contains(env.Message, "boom") {
		t.Errorf("envelope = %+v", env)
	}
}

func TestTimeout(t *testing.T) {
	var deadline time.Time
	var ok bool
	wrapped := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok || time.Until(deadline) > time.Second {
		t.Errorf("expected deadline within 1s, got %v (set=%v)", deadline, ok)
	}

	passthrough := Timeout(0)(okHandler)
	w := httptest.NewRecorder()
	passthrough.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Body.String() != "OK" {
		t.Error("zero timeout should pass through")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 2}, nil)
	handler := rl.Middleware(okHandler)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/proxy", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if send("10.0.0.1:1000") != http.StatusOK || send("10.0.0.1:1001") != http.StatusOK {
		t.Fatal("burst of 2 should be allowed")
	}
	if code := send("10.0.0.1:1002"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}

	rl.Update(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	if code := send("10.0.0.1:1003"); code != http.StatusOK {
		t.Errorf("disabled limiter status = %d, want 200", code)
	}
}

func TestRateLimiter_PreflightNotLimited(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}, nil)
	handler := rl.Middleware(okHandler)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodOptions, "/proxy", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("preflight %d status = %d", i, w.Code)
		}
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 1}, nil)
	rl.allow("a")
	rl.evict(time.Now().Add(10 * time.Minute))

	rl.mu.Lock()
	n := len(rl.limiters)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("limiters = %d, want 0 after eviction", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Run did not stop on cancel")
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		xff     string
		want    string
	}{
		{"remote address", nil, "192.0.2.1:5555", "", "192.0.2.1"},
		{"forwarded header ignored without trusted proxies", nil, "192.0.2.1:5555", "203.0.113.9", "192.0.2.1"},
		{"forwarded header from untrusted peer", []string{"10.0.0.0/8"}, "192.0.2.1:5555", "203.0.113.9", "192.0.2.1"},
		{"trusted proxy", []string{"10.0.0.0/8"}, "10.0.0.7:5555", "203.0.113.9", "203.0.113.9"},
		{"spoofed leftmost hop", []string{"10.0.0.0/8"}, "10.0.0.7:5555", "198.51.100.1, 203.0.113.9", "203.0.113.9"},
		{"chain of trusted proxies", []string{"10.0.0.0/8", "172.16.0.1"}, "10.0.0.7:5555", "203.0.113.9, 172.16.0.1", "203.0.113.9"},
		{"trusted proxy without header", []string{"10.0.0.7"}, "10.0.0.7:5555", "", "10.0.0.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(config.RateLimitConfig{TrustedProxies: tt.trusted}, nil)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := rl.clientKey(req); got != tt.want {
				t.Errorf("clientKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter_ForwardedForDoesNotResetBucket(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1}, nil)
	handler := rl.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for _, fwd := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodGet, "/proxy", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		req.Header.Set("X-Forwarded-For", fwd)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429 429]", codes)
	}
	rl.mu.Lock()
	n := len(rl.limiters)
	rl.mu.Unlock()
	if n != 1 {
		t.Errorf("buckets = %d, want 1", n)
	}
}

func TestChainCarriesRequestIDIntoLogs(t *testing.T) {
	var buf bytes.Buffer
	lg, err := logging.New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	chain := RequestID(Logging(lg.Logger)(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"request_id":"trace-me"`) {
		t.Errorf("log missing request id: %s", buf.String())
	}
}
