// Package memory stores artifacts in-memory for tests and development.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// Provider stores artifacts in-memory and returns pseudo URIs.
type Provider struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new in-memory artifact store.
func New() *Provider {
	return &Provider{data: make(map[string][]byte)}
}

// Save keeps a copy of the content and returns a memory:// URI.
func (p *Provider) Save(_ context.Context, objectName string, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[objectName] = append([]byte(nil), data...)
	return fmt.Sprintf("memory://%s", objectName), nil
}

// Get returns a stored artifact and whether it exists.
func (p *Provider) Get(objectName string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.data[objectName]
	return data, ok
}

// Close implements the Provider interface; it performs no action.
func (p *Provider) Close() error { return nil }
