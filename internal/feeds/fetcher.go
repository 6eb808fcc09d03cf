// Package feeds pulls watch entries from RSS/Atom feeds and page metadata
// from web pages, for filling lists from outside sources.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout  = 30 * time.Second
	maxConcurrent   = 10
	rateLimitDelay  = 1 * time.Second
	maxExcerptWords = 40
)

// FetchOptions controls how feeds are fetched.
type FetchOptions struct {
	// MaxItems is the maximum number of entries taken from each feed.
	// Zero means no limit.
	MaxItems int
}

// Entry is one titled item read from a feed.
type Entry struct {
	Title       string `json:"title"`
	Link        string `json:"link,omitempty"`
	Description string `json:"description,omitempty"`
	Feed        string `json:"feed"`
	Hash        string `json:"hash"`
}

// FailedFeed records a feed that could not be fetched.
type FailedFeed struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// FetchResult contains the fetched entries and any failures.
type FetchResult struct {
	Entries []Entry
	Failed  []FailedFeed
}

// Fetcher reads feeds and pages, spacing requests to the same host and
// bounding how many feeds are in flight.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	throttle *hostThrottle
}

// NewFetcher creates a Fetcher whose requests time out after timeout
// (30 seconds when zero).
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		timeout:  timeout,
		throttle: newHostThrottle(rateLimitDelay),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; iListas/1.0)")
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	return t.base.RoundTrip(req)
}

// FetchAll fetches the given feeds concurrently with at most 10 goroutines.
// Entries appear in feed order, and an entry seen in an earlier feed is not
// repeated. Individual feed failures are collected in FetchResult.Failed
// rather than failing the entire batch.
func (f *Fetcher) FetchAll(ctx context.Context, feedURLs []string, opts FetchOptions) (*FetchResult, error) {
	var (
		perFeed = make([][]Entry, len(feedURLs))
		failed  []FailedFeed
		mu      sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, feedURL := range feedURLs {
		g.Go(func() error {
			entries, err := f.fetchSingleFeed(ctx, feedURL, opts)
			if err != nil {
				slog.Warn("failed to fetch feed", "url", feedURL, "error", err)

				mu.Lock()
				failed = append(failed, FailedFeed{URL: feedURL, Error: err.Error()})
				mu.Unlock()

				return nil // skip failures, don't fail the batch
			}

			perFeed[i] = entries
			slog.Info("fetched feed", "url", feedURL, "items", len(entries))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	result := &FetchResult{Failed: failed}
	seen := make(map[string]bool)
	for _, entries := range perFeed {
		for _, e := range entries {
			if seen[e.Hash] {
				continue
			}
			seen[e.Hash] = true
			result.Entries = append(result.Entries, e)
		}
	}
	return result, nil
}

// fetchSingleFeed retrieves and parses one RSS/Atom feed.
func (f *Fetcher) fetchSingleFeed(ctx context.Context, feedURL string, opts FetchOptions) ([]Entry, error) {
	if err := f.throttle.wait(ctx, extractDomain(feedURL)); err != nil {
		return nil, err
	}

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	return parseFeedEntries(feedURL, feed, opts.MaxItems), nil
}

// ExtractPage fetches pageURL and returns its title, site name and a short
// excerpt using go-readability.
func (f *Fetcher) ExtractPage(ctx context.Context, pageURL string) (*Page, error) {
	if err := f.throttle.wait(ctx, extractDomain(pageURL)); err != nil {
		return nil, err
	}

	page, err := extractPage(pageURL, f.timeout)
	if err != nil {
		return nil, fmt.Errorf("extracting page %q: %w", pageURL, err)
	}
	return page, nil
}

// extractDomain parses a URL and returns its hostname. If parsing fails, it
// returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
