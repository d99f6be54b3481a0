// Package progress defines the event stream emitted while a harvest run
// executes, decoupling the pipeline from how milestones are logged,
// counted, or exported.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart      Stage = "RUN_START"
	StageRunDone       Stage = "RUN_DONE"
	StageEndpointStart Stage = "ENDPOINT_START"
	StageEndpointDone  Stage = "ENDPOINT_DONE"
	StageEndpointSkip  Stage = "ENDPOINT_SKIP"
	StageEndpointError Stage = "ENDPOINT_ERROR"
)

// Event captures a single milestone of a harvest run.
type Event struct {
	// RunID identifies the harvest run the event belongs to.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Endpoint scopes endpoint events to a catalog slug.
	Endpoint string
	// Records carries the harvested record count for completion events.
	Records int64
	// Dur captures execution latency for completions.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageEndpointStart, StageEndpointDone, StageEndpointSkip, StageEndpointError:
		if e.Endpoint == "" {
			return fmt.Errorf("%s requires an endpoint", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
