// Package search implements the DuckDuckGo HTML search client used by the
// dork stage. The HTML endpoint needs no API key but is rate sensitive, so
// every query goes through a shared limiter.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://html.duckduckgo.com/html/"
	defaultTimeout = 15 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Hit is one parsed search result.
type Hit struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

type OptFunc func(*Client)

// WithBaseURL points the client at a different endpoint, used by tests.
func WithBaseURL(base string) OptFunc {
	return func(c *Client) { c.baseURL = base }
}

func WithHTTPClient(hc *http.Client) OptFunc {
	return func(c *Client) { c.httpClient = hc }
}

// Client queries the search engine with a minimum delay between requests.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewClient builds a client that issues at most one query per delay interval.
// A non-positive delay disables throttling.
func NewClient(delay time.Duration, opts ...OptFunc) *Client {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one query and returns its parsed hits. The rate limiter blocks
// until the query is allowed or the context ends.
func (c *Client) Search(ctx context.Context, query string) ([]Hit, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	return ParseResults(resp.Body)
}

// ParseResults extracts hits from a result page. Entries without a link are
// skipped.
func ParseResults(r io.Reader) ([]Hit, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	var hits []Hit
	doc.Find("div.result").Each(func(_ int, sel *goquery.Selection) {
		var hit Hit

		link := sel.Find("a.result__a").First()
		hit.Title = strings.TrimSpace(link.Text())
		hit.URL, _ = link.Attr("href")

		hit.Snippet = strings.TrimSpace(sel.Find("a.result__snippet").First().Text())

		if hit.URL != "" {
			hits = append(hits, hit)
		}
	})
	return hits, nil
}
