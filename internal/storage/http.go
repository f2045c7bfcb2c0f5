package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// httpClientTimeout is the total request timeout.
	httpClientTimeout = 30 * time.Second
	// maxObjectBytes caps how much of an object body is read back.
	maxObjectBytes = 4 << 20 // 4MB
)

// HTTPStore talks to an HTTP object-storage provider:
//
//	PUT  {base}/{bucket}/{key}          store an object
//	GET  {base}/{bucket}?prefix={p}     list object keys and sizes
//	GET  {base}/{bucket}/{key}          fetch an object
//
// An optional static bearer token covers deployments fronted by an
// auth proxy; anything richer is the provider's concern.
type HTTPStore struct {
	baseURL string
	bucket  string
	token   string
	client  *http.Client
}

// NewHTTPStore creates a store for the given provider and bucket.
func NewHTTPStore(baseURL, bucket, token string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bucket:  bucket,
		token:   token,
		client: &http.Client{
			Timeout: httpClientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Put stores the body under the key.
func (s *HTTPStore) Put(ctx context.Context, key string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("put %s: unexpected status %d", key, resp.StatusCode)
	}
	return nil
}

// List returns objects under the prefix.
func (s *HTTPStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	u := fmt.Sprintf("%s/%s?prefix=%s", s.baseURL, s.bucket, url.QueryEscape(prefix))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list %s: unexpected status %d", prefix, resp.StatusCode)
	}

	var listing struct {
		Objects []ObjectInfo `json:"objects"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxObjectBytes)).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing for %s: %w", prefix, err)
	}
	return listing.Objects, nil
}

// Get returns the body stored under the key.
func (s *HTTPStore) Get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("build get request: %w", err)
	}
	s.authorize(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: unexpected status %d", key, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return body, nil
}

func (s *HTTPStore) objectURL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + key
}

func (s *HTTPStore) authorize(req *http.Request) {
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
