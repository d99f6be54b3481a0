// Package storage defines the blob storage layer used for knowledge-base
// artifacts. An interface decouples the pipeline from a specific backend so
// runs can target GCS in production and the filesystem or memory locally.
package storage

import "context"

// Provider writes a named artifact and returns a URI for it.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) (string, error)
	Close() error
}

// NoOpProvider discards artifacts. Useful for dry runs.
type NoOpProvider struct{}

// Save for NoOpProvider does nothing and returns a pseudo URI.
func (n *NoOpProvider) Save(_ context.Context, objectName string, _ []byte) (string, error) {
	return "noop://" + objectName, nil
}

// Close for NoOpProvider does nothing.
func (n *NoOpProvider) Close() error { return nil }
