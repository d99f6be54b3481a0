package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureSink records every batch it consumes.
type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batch...)
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func validEvent(stage Stage, endpoint string) Event {
	return Event{
		RunID:    "run-1",
		TS:       time.Unix(1700000000, 0).UTC(),
		Stage:    stage,
		Endpoint: endpoint,
	}
}

func TestHubDeliversInOrder(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchWait: 10 * time.Millisecond}, sink)

	hub.Emit(validEvent(StageRunStart, ""))
	hub.Emit(validEvent(StageEndpointStart, "a"))
	hub.Emit(validEvent(StageEndpointDone, "a"))
	hub.Emit(validEvent(StageRunDone, ""))

	require.NoError(t, hub.Close(context.Background()))

	events := sink.snapshot()
	require.Len(t, events, 4)
	require.Equal(t, StageRunStart, events[0].Stage)
	require.Equal(t, StageEndpointStart, events[1].Stage)
	require.Equal(t, StageEndpointDone, events[2].Stage)
	require.Equal(t, StageRunDone, events[3].Stage)
	require.True(t, sink.closed)
}

func TestHubDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{}, sink)

	// Missing run id, then an endpoint stage without an endpoint.
	hub.Emit(Event{})
	hub.Emit(Event{RunID: "run-1", TS: time.Now(), Stage: StageEndpointDone})
	hub.Emit(validEvent(StageRunStart, ""))

	require.NoError(t, hub.Close(context.Background()))
	require.Len(t, sink.snapshot(), 1)
}

func TestHubEmitAfterCloseIsNoOp(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(validEvent(StageRunStart, ""))
	require.Empty(t, sink.snapshot())
}

func TestHubCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(Config{}, &captureSink{})
	require.NoError(t, hub.Close(context.Background()))
	require.NoError(t, hub.Close(context.Background()))
}

func TestHubFlushesOnBatchSize(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(Config{MaxBatchEvents: 2, MaxBatchWait: time.Hour}, sink)
	defer hub.Close(context.Background()) //nolint:errcheck

	hub.Emit(validEvent(StageRunStart, ""))
	hub.Emit(validEvent(StageEndpointStart, "a"))

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
}
