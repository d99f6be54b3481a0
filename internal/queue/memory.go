package queue

import (
	"context"
	"sync"
)

// MemoryPublisher records notifications in-memory for tests.
type MemoryPublisher struct {
	mu    sync.Mutex
	notes []Notification
}

// NewMemoryPublisher creates a new in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish appends the notification to the in-memory log.
func (p *MemoryPublisher) Publish(_ context.Context, note Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notes = append(p.notes, note)
	return nil
}

// Notifications returns a copy of everything published so far.
func (p *MemoryPublisher) Notifications() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notification(nil), p.notes...)
}

// Close does nothing.
func (p *MemoryPublisher) Close() error { return nil }
