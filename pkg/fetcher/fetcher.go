// Package fetcher retrieves remote script bodies for content analysis. A
// fetch either yields the full body or nothing; failed fetches are absent
// from downstream results rather than recorded as errors.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	// Browser user agent; plain Go client UAs get blocked by CDNs often
	// enough to skew results.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// maxBodySize bounds a single script body read.
	maxBodySize = 10 * 1024 * 1024
)

type OptFunc func(*Fetcher)

func WithTimeout(d time.Duration) OptFunc {
	return func(f *Fetcher) { f.client.Timeout = d }
}

func WithUserAgent(ua string) OptFunc {
	return func(f *Fetcher) { f.userAgent = ua }
}

func WithClient(c *http.Client) OptFunc {
	return func(f *Fetcher) { f.client = c }
}

// Fetcher is a bounded-timeout HTTP getter. Certificate validation is
// disabled: recon targets routinely serve stale or self-signed certs and a
// skipped host is worse than an unverified one here.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(opts ...OptFunc) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the response body for a 2xx response and an error for
// anything else, transport failures included.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid fetch URL %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch for %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return string(body), nil
}
