// Package fetcher implements the single fetch primitive the harvest engines
// build on: one HTTP GET with a fixed timeout and identifying header,
// decoded into a catalog document. There are no retries here; retry policy,
// if any, belongs to a layer above.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/geoharvest/stac-harvester/internal/metrics"
	"github.com/geoharvest/stac-harvester/internal/stac"
)

// DefaultUserAgent identifies the harvester to remote catalogs.
const DefaultUserAgent = "StacMasterCrawler/20.0"

// DefaultTimeout bounds every individual fetch.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read; catalog documents
// beyond this are treated as shape errors.
const maxBodyBytes = 32 << 20

// Config controls the JSON fetcher.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// JSONFetcher fetches catalog documents over HTTP(S). It satisfies
// harvest.Fetcher.
type JSONFetcher struct {
	client    *http.Client
	userAgent string
}

// New builds a JSONFetcher, filling zero-valued config with the defaults.
func New(cfg Config) *JSONFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &JSONFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
	}
}

// FetchDocument GETs rawURL and decodes the body. Transport failures
// (including non-2xx statuses) return *TransportError; undecodable bodies
// return *ShapeError. A nil error guarantees a non-nil document.
func (f *JSONFetcher) FetchDocument(ctx context.Context, rawURL string) (*stac.Document, error) {
	metrics.TotalFetches.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		metrics.TotalTransportErrors.Inc()
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.TotalTransportErrors.Inc()
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.TotalTransportErrors.Inc()
		return nil, &TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.TotalTransportErrors.Inc()
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	doc, err := stac.DecodeDocument(body)
	if err != nil {
		metrics.TotalShapeErrors.Inc()
		return nil, &ShapeError{URL: rawURL, Err: err}
	}
	return doc, nil
}
