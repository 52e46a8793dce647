package urlcheck

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClient serves canned status codes and counts requests.
type fakeClient struct {
	mu     sync.Mutex
	calls  int
	status map[string]int
}

func (f *fakeClient) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	code, ok := f.status[req.URL.String()]
	if !ok {
		code = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: code,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     http.Header{},
	}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.HostInterval = 0
	opts.Retries = 0
	opts.Timeout = time.Second
	return opts
}

func TestCheck(t *testing.T) {
	fake := &fakeClient{status: map[string]int{
		"https://example.com/alive":   http.StatusOK,
		"https://example.com/moved":   http.StatusFound,
		"https://other.org/gone":      http.StatusNotFound,
		"https://other.org/forbidden": http.StatusForbidden,
	}}

	checker := NewChecker(fastOptions())
	checker.SetClient(fake)

	refs := []Ref{
		{Key: "a", URL: "https://example.com/alive"},
		{Key: "b", URL: "https://example.com/moved"},
		{Key: "c", URL: "https://other.org/gone"},
		{Key: "d", URL: "https://other.org/forbidden"},
	}
	report := checker.Check(context.Background(), refs)

	if report.Total != 4 {
		t.Errorf("Total = %d, want 4", report.Total)
	}
	if report.Alive != 2 {
		t.Errorf("Alive = %d, want 2", report.Alive)
	}
	if len(report.Dead) != 2 {
		t.Fatalf("Dead = %d, want 2", len(report.Dead))
	}
	// Dead results are sorted by entry key.
	if report.Dead[0].Key != "c" || report.Dead[1].Key != "d" {
		t.Errorf("dead keys = %q, %q", report.Dead[0].Key, report.Dead[1].Key)
	}
	if report.Dead[0].Err != "HTTP 404" {
		t.Errorf("dead error = %q, want HTTP 404", report.Dead[0].Err)
	}
}

func TestCheckEmpty(t *testing.T) {
	checker := NewChecker(fastOptions())
	report := checker.Check(context.Background(), nil)
	if report.Total != 0 || len(report.Results) != 0 {
		t.Errorf("empty input produced results: %+v", report)
	}
}

func TestCheckUsesCache(t *testing.T) {
	fake := &fakeClient{status: map[string]int{
		"https://example.com/page": http.StatusOK,
	}}
	checker := NewChecker(fastOptions())
	checker.SetClient(fake)

	refs := []Ref{{Key: "a", URL: "https://example.com/page"}}
	checker.Check(context.Background(), refs)
	if n := fake.callCount(); n != 1 {
		t.Fatalf("first run made %d requests, want 1", n)
	}

	// Same URL under a different key hits the cache.
	report := checker.Check(context.Background(), []Ref{{Key: "b", URL: "https://example.com/page"}})
	if n := fake.callCount(); n != 1 {
		t.Errorf("cached URL re-requested: %d calls", n)
	}
	if len(report.Results) != 1 || report.Results[0].Key != "b" {
		t.Errorf("cached result must carry the caller's key: %+v", report.Results)
	}
}

func TestResultCacheExpiry(t *testing.T) {
	cache := newResultCache(10 * time.Millisecond)
	cache.set("u", &Result{URL: "u", Status: StatusAlive})

	if _, ok := cache.get("u"); !ok {
		t.Fatal("fresh entry not found")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.get("u"); ok {
		t.Error("expired entry still returned")
	}
	if n := cache.len(); n != 0 {
		t.Errorf("expired entry not evicted, len = %d", n)
	}
}

func TestReportString(t *testing.T) {
	rep := &Report{
		Total: 2,
		Alive: 1,
		Dead: []*Result{
			{Key: "b", URL: "https://other.org/gone", Status: StatusDead, StatusCode: 404, Err: "HTTP 404"},
		},
	}
	s := rep.String()
	if !strings.Contains(s, "checked 2 URL(s), 1 alive, 1 unreachable") {
		t.Errorf("summary line malformed: %q", s)
	}
	if !strings.Contains(s, "b: https://other.org/gone (HTTP 404)") {
		t.Errorf("dead line malformed: %q", s)
	}
}
