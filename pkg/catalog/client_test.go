package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"quizhub/aggregator/pkg/config"
)

// fakeTransport answers by target URL and records every call.
type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     []string
}

func (f *fakeTransport) Fetch(_ context.Context, target string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, target)
	if f.err != nil {
		return nil, f.err
	}
	if body, ok := f.responses[target]; ok {
		return []byte(body), nil
	}
	return []byte(`{"error":"Failed to fetch data","message":"not stubbed","data":[]}`), nil
}

func testCatalogConfig() config.CatalogConfig {
	return config.CatalogConfig{
		ManifestURL: "https://manifest.test/apis.json",
		BaseURL:     "https://bridge.test/appx.php",
	}
}

func newTestClient(ft *fakeTransport) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(testCatalogConfig(), WithTransport(ft), WithLogger(logger))
}

func TestClient_ActionURL(t *testing.T) {
	c := newTestClient(&fakeTransport{})

	got := c.actionURL("https://api.example.classx.co.in/", "titles", [][2]string{{"test_id", "12"}, {"subject_id", "a b"}})
	want := "https://bridge.test/appx.php?bash_url=https%3A%2F%2Fapi.example.classx.co.in%2F&action=titles&test_id=12&subject_id=a+b"
	if got != want {
		t.Errorf("actionURL() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestClient_ListProviders(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{
		"https://manifest.test/apis.json": `[
			{"name": "Alpha", "api": "https://alpha.test/"},
			{"name": "No Api"},
			{"name": "Beta", "api": "https://beta.test/"}
		]`,
	}}
	c := newTestClient(ft)

	got := c.ListProviders(context.Background())
	if len(got) != 2 {
		t.Fatalf("ListProviders() = %+v, want 2 entries", got)
	}
	if got[0] != (Provider{Name: "Alpha", API: "https://alpha.test/"}) {
		t.Errorf("first provider = %+v", got[0])
	}
}

func TestClient_ListTestSeries(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	target := c.actionURL("https://alpha.test/", "series", nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"top-level array", `[{"id": 1}, {"id": 2}]`, 2},
		{"data key", `{"data": [{"id": 1}]}`, 1},
		{"series key", `{"status": 200, "series": [{"id": 1}, {"id": 2}, {"id": 3}]}`, 3},
		{"nested data object", `{"data": {"items": [{"id": 1}]}}`, 1},
		{"non-object elements skipped", `[{"id": 1}, "junk", 3]`, 1},
		{"invalid token", `{"msg": "Invalid Token"}`, 0},
		{"status 401 string", `{"status": "401", "message": "login"}`, 0},
		{"envelope error", `{"error": "Forbidden domain", "data": []}`, 0},
		{"not an array", `{"ok": true}`, 0},
		{"malformed json", `{"data": [`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{responses: map[string]string{target: tt.body}}
			c := newTestClient(ft)

			got := c.ListTestSeries(context.Background(), "https://alpha.test/")
			if got == nil {
				t.Fatal("ListTestSeries() returned nil, want a non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("ListTestSeries() returned %d items, want %d", len(got), tt.want)
			}
		})
	}
}

func TestClient_ResultErrors(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	target := c.actionURL("https://alpha.test/", "series", nil)

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"invalid token", `{"msg": "Invalid Token"}`, ErrAuthRequired},
		{"status 401", `{"status": 401}`, ErrAuthRequired},
		{"envelope", `{"error": "Failed to fetch data", "message": "dial tcp: refused", "data": []}`, ErrEnvelope},
		{"not array", `{"ok": true}`, ErrNotArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{responses: map[string]string{target: tt.body}}
			_, err := newTestClient(ft).ListTestSeriesResult(context.Background(), "https://alpha.test/").Unwrap()

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var opErr *OperationError
			if !errors.As(err, &opErr) || opErr.Op != "list series" {
				t.Errorf("error %v is not an OperationError for list series", err)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection refused")}
	c := newTestClient(ft)

	if got := c.ListSubjects(context.Background(), "https://alpha.test/", "1"); got == nil || len(got) != 0 {
		t.Errorf("ListSubjects() = %v, want empty slice", got)
	}
	if got := c.FetchQuizQuestions(context.Background(), "https://q.test/1.json"); got == nil || len(got) != 0 {
		t.Errorf("FetchQuizQuestions() = %v, want empty slice", got)
	}
}

func TestClient_ListTestTitles_Query(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{}}
	c := newTestClient(ft)
	target := c.actionURL("https://alpha.test/", "titles", [][2]string{{"test_id", "s1"}, {"subject_id", "sub9"}})
	ft.responses[target] = `{"data": [{"title_id": "t1", "title": "Mock"}]}`

	got := c.ListTestTitles(context.Background(), "https://alpha.test/", "s1", "sub9")
	if len(got) != 1 || got[0].ID != "t1" || got[0].Name != "Mock" {
		t.Fatalf("ListTestTitles() = %+v", got)
	}

	u, err := url.Parse(ft.calls[0])
	if err != nil {
		t.Fatalf("bad target: %v", err)
	}
	q := u.Query()
	if q.Get("action") != "titles" || q.Get("test_id") != "s1" || q.Get("subject_id") != "sub9" {
		t.Errorf("unexpected query %v", q)
	}
	if q.Get("bash_url") != "https://alpha.test/" {
		t.Errorf("bash_url = %q", q.Get("bash_url"))
	}
}

func TestClient_EmptyQuestionsURL(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	_, err := c.FetchQuizQuestionsResult(context.Background(), "").Unwrap()
	if err == nil {
		t.Fatal("expected an error for an empty url")
	}
	if len(ft.calls) != 0 {
		t.Errorf("transport called %d times, want 0", len(ft.calls))
	}
}

func TestHTTPTransport(t *testing.T) {
	var gotURL string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"test_id": "9", "series_name": "Foo", "is_paid": 1}]`)
	}))
	defer gw.Close()

	cfg := testCatalogConfig()
	cfg.ProxyURL = gw.URL + "/proxy"
	c := NewClient(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	got := c.ListTestSeries(context.Background(), "https://alpha.test/")
	if len(got) != 1 || got[0].ID != "9" || got[0].Name != "Foo" || !got[0].IsPaid {
		t.Fatalf("ListTestSeries() = %+v", got)
	}
	if !strings.HasPrefix(gotURL, "https://bridge.test/appx.php?bash_url=") {
		t.Errorf("gateway received url=%q", gotURL)
	}
}

func TestClient_SeriesLister(t *testing.T) {
	ft := &fakeTransport{responses: map[string]string{}}
	c := newTestClient(ft)
	ft.responses[c.actionURL("https://ok.test/", "series", nil)] = `[{"id": "1"}]`
	ft.responses[c.actionURL("https://auth.test/", "series", nil)] = `{"msg": "Invalid Token"}`

	lister := c.SeriesLister()

	items, err := lister.ListTestSeries(context.Background(), "https://ok.test/")
	if err != nil || len(items) != 1 {
		t.Errorf("ok provider: items=%v err=%v", items, err)
	}
	if _, err := lister.ListTestSeries(context.Background(), "https://auth.test/"); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("auth provider: err=%v, want ErrAuthRequired", err)
	}
}
