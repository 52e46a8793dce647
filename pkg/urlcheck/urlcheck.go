// Package urlcheck verifies that the URLs referenced by bibliography
// entries still resolve. Requests go out as HEAD with per-host rate
// limiting; results are cached so repeated runs over the same
// bibliography stay cheap.
package urlcheck

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status is the outcome of checking one URL.
type Status string

const (
	StatusAlive   Status = "alive"
	StatusDead    Status = "dead"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Ref is a URL together with the bibliography entry that cites it.
type Ref struct {
	Key string
	URL string
}

// Result captures the outcome of checking one reference.
type Result struct {
	Key          string
	URL          string
	Status       Status
	StatusCode   int
	Err          string
	ResponseTime time.Duration
	CheckedAt    time.Time
}

// Alive reports whether the URL responded successfully, redirects
// included.
func (r *Result) Alive() bool {
	return r.Status == StatusAlive
}

// Report aggregates results for a whole bibliography.
type Report struct {
	Total   int
	Alive   int
	Dead    []*Result
	Results []*Result
}

// String renders a terminal summary of the report.
func (rep *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "checked %d URL(s), %d alive, %d unreachable\n",
		rep.Total, rep.Alive, len(rep.Dead))
	for _, r := range rep.Dead {
		detail := r.Err
		if detail == "" && r.StatusCode > 0 {
			detail = fmt.Sprintf("HTTP %d", r.StatusCode)
		}
		fmt.Fprintf(&b, "  %s: %s (%s)\n", r.Key, r.URL, detail)
	}
	return b.String()
}

// Options configure a Checker.
type Options struct {
	// Timeout bounds a single request.
	Timeout time.Duration

	// HostInterval is the minimum delay between requests to one host.
	HostInterval time.Duration

	// Concurrency caps the number of hosts checked in parallel.
	Concurrency int

	// Retries is the number of extra attempts on transient failures.
	Retries int

	// CacheTTL is how long a result stays valid in the cache.
	CacheTTL time.Duration

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Timeout:      15 * time.Second,
		HostInterval: time.Second,
		Concurrency:  3,
		Retries:      1,
		CacheTTL:     time.Hour,
		UserAgent:    "texlint-urlcheck/1.0",
	}
}

// HTTPClient matches the Do method of *http.Client so tests can inject
// fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Checker validates bibliography URLs.
type Checker struct {
	opts   Options
	client HTTPClient
	cache  *resultCache
	hosts  *hostLimiter
}

// NewChecker creates a checker with the given options.
func NewChecker(opts Options) *Checker {
	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	c := &Checker{
		opts:   opts,
		client: client,
		cache:  newResultCache(opts.CacheTTL),
	}
	c.hosts = newHostLimiter(opts.HostInterval)
	return c
}

// SetClient replaces the HTTP client, for tests.
func (c *Checker) SetClient(client HTTPClient) {
	c.client = client
}

// Check verifies every reference and returns an aggregate report.
// References sharing a host are checked sequentially with the configured
// interval between requests; distinct hosts run in parallel up to the
// concurrency cap.
func (c *Checker) Check(ctx context.Context, refs []Ref) *Report {
	report := &Report{}
	if len(refs) == 0 {
		return report
	}

	groups := make(map[string][]Ref)
	for _, ref := range refs {
		groups[hostOf(ref.URL)] = append(groups[hostOf(ref.URL)], ref)
	}

	results := make(chan *Result, len(refs))
	sem := make(chan struct{}, c.opts.Concurrency)
	var wg sync.WaitGroup

	for _, group := range groups {
		wg.Add(1)
		go func(group []Ref) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			for _, ref := range group {
				select {
				case <-ctx.Done():
					return
				default:
					results <- c.checkOne(ctx, ref)
				}
			}
		}(group)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		report.Total++
		if r.Alive() {
			report.Alive++
		} else {
			report.Dead = append(report.Dead, r)
		}
		report.Results = append(report.Results, r)
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Key < report.Results[j].Key })
	sort.Slice(report.Dead, func(i, j int) bool { return report.Dead[i].Key < report.Dead[j].Key })
	return report
}

// checkOne checks a single reference with retry on transient failures.
func (c *Checker) checkOne(ctx context.Context, ref Ref) *Result {
	if cached, ok := c.cache.get(ref.URL); ok {
		r := *cached
		r.Key = ref.Key
		return &r
	}

	var last *Result
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return &Result{Key: ref.Key, URL: ref.URL, Status: StatusError, Err: "cancelled", CheckedAt: time.Now()}
			case <-time.After(backoff):
			}
		}
		last = c.request(ctx, ref)
		if last.Status == StatusAlive || last.Status == StatusDead {
			break
		}
	}
	c.cache.set(ref.URL, last)
	return last
}

// request performs one HEAD request.
func (c *Checker) request(ctx context.Context, ref Ref) *Result {
	start := time.Now()
	result := &Result{Key: ref.Key, URL: ref.URL}

	c.hosts.wait(hostOf(ref.URL))

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, ref.URL, nil)
	if err != nil {
		result.Status = StatusError
		result.Err = fmt.Sprintf("bad URL: %v", err)
		result.CheckedAt = time.Now()
		return result
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	result.ResponseTime = time.Since(start)
	result.CheckedAt = time.Now()

	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			result.Status = StatusTimeout
			result.Err = "request timed out"
		} else {
			result.Status = StatusError
			result.Err = err.Error()
		}
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode < 400:
		result.Status = StatusAlive
	default:
		result.Status = StatusDead
		result.Err = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return result
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// hostLimiter enforces a minimum interval between requests to one host.
type hostLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	return &hostLimiter{interval: interval, last: make(map[string]time.Time)}
}

func (h *hostLimiter) wait(host string) {
	h.mu.Lock()
	last, seen := h.last[host]
	now := time.Now()
	if seen {
		if wait := h.interval - now.Sub(last); wait > 0 {
			h.mu.Unlock()
			time.Sleep(wait)
			h.mu.Lock()
			now = time.Now()
		}
	}
	h.last[host] = now
	h.mu.Unlock()
}
