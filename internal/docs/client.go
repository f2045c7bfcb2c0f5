// Package docs integrates the documentation wiki: it maps actions to
// wiki paths, fetches pages over HTTP, and TTL-caches enriched copies.
package docs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cliplink/cliplink/internal/model"
)

const (
	// clientTimeout is the total request timeout.
	clientTimeout = 10 * time.Second
	// dialTimeout is the connection timeout.
	dialTimeout = 5 * time.Second
	// maxPageBytes caps how much of a documentation response is read.
	maxPageBytes = 1 << 20 // 1MB
)

// Fetcher retrieves documentation pages. Implementations must treat the
// wiki as best-effort: callers swallow errors and degrade gracefully.
type Fetcher interface {
	FetchPage(ctx context.Context, path string) (*model.WikiPage, error)
}

// ErrDisabled is returned by Disabled when no documentation provider
// is configured.
var ErrDisabled = errors.New("documentation provider not configured")

// Disabled is the Fetcher used when no wiki base URL is configured.
// Every fetch fails with ErrDisabled and resolutions proceed without
// documentation.
type Disabled struct{}

// FetchPage always returns ErrDisabled.
func (Disabled) FetchPage(ctx context.Context, path string) (*model.WikiPage, error) {
	return nil, ErrDisabled
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, path string) (*model.WikiPage, error)

// FetchPage calls f.
func (f FetcherFunc) FetchPage(ctx context.Context, path string) (*model.WikiPage, error) {
	return f(ctx, path)
}

// HTTPFetcher fetches pages from the documentation provider over HTTP.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the provider at baseURL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: 5 * time.Second,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// FetchPage GETs baseURL+path and decodes the page JSON. Any non-2xx
// response is a fetch failure.
func (f *HTTPFetcher) FetchPage(ctx context.Context, path string) (*model.WikiPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build docs request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Cliplink-Docs/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var page model.WikiPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &page, nil
}
