// Package queue defines the notification layer: one message per harvested
// endpoint so downstream consumers can react without polling the database.
package queue

import "context"

// Notification is the payload published when an endpoint harvest finishes.
type Notification struct {
	RunID   string `json:"run_id"`
	Slug    string `json:"slug"`
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// Publisher pushes harvest notifications to a message broker.
type Publisher interface {
	Publish(ctx context.Context, note Notification) error
	Close() error
}

// NoOpPublisher discards notifications.
type NoOpPublisher struct{}

// Publish does nothing.
func (NoOpPublisher) Publish(context.Context, Notification) error { return nil }

// Close does nothing.
func (NoOpPublisher) Close() error { return nil }
