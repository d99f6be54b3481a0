// Package recon implements the reconnaissance stage: it lists the public
// catalogs registered in a STAC index service and probes each root URL so
// the planner only schedules reachable endpoints.
package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/geoharvest/stac-harvester/internal/harvest"
)

// indexEntry is one catalog as the index API describes it.
type indexEntry struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	IsPrivate *bool  `json:"isPrivate"`
}

// Config controls the reconnaissance client.
type Config struct {
	IndexURL  string
	UserAgent string
	Timeout   time.Duration
}

// Client profiles catalog endpoints against the index service.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a reconnaissance Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Profile fetches the catalog index and probes every public catalog root,
// returning one descriptor per endpoint. A probe failure marks the endpoint
// failed with its reason; it never aborts the run.
func (c *Client) Profile(ctx context.Context) ([]harvest.EndpointDescriptor, error) {
	entries, err := c.listCatalogs(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("profiling public catalogs", zap.Int("count", len(entries)))

	descriptors := make([]harvest.EndpointDescriptor, 0, len(entries))
	for _, entry := range entries {
		descriptor := harvest.EndpointDescriptor{
			Slug:   entry.Slug,
			Title:  entry.Title,
			URL:    entry.URL,
			Status: harvest.EndpointOK,
		}
		if err := c.probe(ctx, entry.URL); err != nil {
			descriptor.Status = harvest.EndpointFailed
			descriptor.Reason = err.Error()
			c.logger.Warn("endpoint unreachable",
				zap.String("slug", entry.Slug),
				zap.Error(err),
			)
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

// listCatalogs fetches the index listing and keeps public entries that have
// a root URL. Entries without an isPrivate field are treated as private,
// matching the index API's defaulting.
func (c *Client) listCatalogs(ctx context.Context) ([]indexEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.IndexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build index request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog index: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch catalog index: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog index: %w", err)
	}

	var entries []indexEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog index: %w", err)
	}

	public := entries[:0]
	for _, entry := range entries {
		if entry.IsPrivate != nil && !*entry.IsPrivate && entry.URL != "" {
			public = append(public, entry)
		}
	}
	return public, nil
}

func (c *Client) probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	// Drain so the connection can be reused across probes.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
