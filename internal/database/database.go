// Package database defines the interface for persisting harvest run
// metadata. An interface decouples the pipeline from Postgres so tests and
// local runs can use the no-op provider.
package database

import (
	"context"
	"time"
)

// RunRecord summarizes one full harvest run.
type RunRecord struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Endpoints        int       `json:"endpoints"`
	Succeeded        int       `json:"succeeded"`
	Failed           int       `json:"failed"`
	Skipped          int       `json:"skipped"`
	Empty            int       `json:"empty"`
	KnowledgeBaseURI string    `json:"knowledge_base_uri,omitempty"`
}

// EndpointRecord is persisted for each endpoint an engine processed.
type EndpointRecord struct {
	RunID       string        `json:"run_id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	URL         string        `json:"url"`
	Strategy    string        `json:"strategy"`
	Status      string        `json:"status"`
	Records     int           `json:"records"`
	Notes       []string      `json:"notes,omitempty"`
	Error       string        `json:"error,omitempty"`
	HarvestedAt time.Time     `json:"harvested_at"`
	Duration    time.Duration `json:"duration"`
}

// Provider persists run and endpoint metadata.
type Provider interface {
	RecordRun(ctx context.Context, run RunRecord) error
	RecordEndpoint(ctx context.Context, rec EndpointRecord) error
	GetRun(ctx context.Context, runID string) (RunRecord, error)
	ListEndpoints(ctx context.Context, runID string) ([]EndpointRecord, error)
	Close()
}

// NoOpProvider discards all metadata. Useful when running without Postgres.
type NoOpProvider struct{}

// RecordRun does nothing.
func (NoOpProvider) RecordRun(context.Context, RunRecord) error { return nil }

// RecordEndpoint does nothing.
func (NoOpProvider) RecordEndpoint(context.Context, EndpointRecord) error { return nil }

// GetRun always reports an empty record.
func (NoOpProvider) GetRun(_ context.Context, runID string) (RunRecord, error) {
	return RunRecord{ID: runID}, nil
}

// ListEndpoints always reports no rows.
func (NoOpProvider) ListEndpoints(context.Context, string) ([]EndpointRecord, error) {
	return nil, nil
}

// Close does nothing.
func (NoOpProvider) Close() {}
