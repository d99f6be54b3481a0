// Package harvest implements the harvest engine: strategy planning plus the
// two traversal algorithms that turn a catalog root URL into a deduplicated
// set of collection records. Shared types and the small interfaces the
// engines depend on live here; implementations live in their own packages.
package harvest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/geoharvest/stac-harvester/internal/stac"
)

// EndpointStatus is the reachability state assigned during reconnaissance.
type EndpointStatus string

// Reachability states recorded on an EndpointDescriptor.
const (
	EndpointOK      EndpointStatus = "OK"
	EndpointSkipped EndpointStatus = "Skipped"
	EndpointFailed  EndpointStatus = "Failed"
)

// EndpointDescriptor identifies one remote catalog and its probed
// reachability. Immutable once handed to the engine.
type EndpointDescriptor struct {
	Slug   string         `json:"slug"`
	Title  string         `json:"title"`
	URL    string         `json:"url"`
	Status EndpointStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

// StrategyKind selects which traversal engine handles an endpoint.
type StrategyKind string

// Traversal strategies.
const (
	StrategySkip      StrategyKind = "Skip"
	StrategyLinkGraph StrategyKind = "LinkGraph"
	StrategyPaginated StrategyKind = "Paginated"
)

// Strategy is the per-endpoint harvest plan. MaxDepth applies to both
// engines; the paginated engine currently carries it without consulting it.
// HardLimit applies only to the link-graph engine.
type Strategy struct {
	Kind      StrategyKind `json:"strategy"`
	MaxDepth  int          `json:"max_depth,omitempty"`
	HardLimit int          `json:"hard_limit,omitempty"`
}

// CollectionRecord is the harvestable unit: the full body of a document
// recognized as catalog data. ID is empty when the document declared none.
type CollectionRecord struct {
	ID  string
	Raw json.RawMessage
}

// TraversalResult is returned by one engine invocation.
type TraversalResult struct {
	Records []CollectionRecord
	Notes   []string
}

// OutcomeStatus classifies what a single endpoint harvest produced.
type OutcomeStatus string

// Outcome states reported to the aggregation layer. Empty is distinct from
// Failed: the traversal ran cleanly but recognized nothing.
const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeEmpty     OutcomeStatus = "empty"
)

// Outcome is the per-endpoint result handed to persistence.
type Outcome struct {
	Endpoint  EndpointDescriptor
	Status    OutcomeStatus
	Result    *TraversalResult
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Fetcher retrieves one URL and decodes it as a catalog document. A nil
// error guarantees a non-nil document. Errors carry the fetch taxonomy
// (transport vs shape) but the engines only care that nothing came back.
type Fetcher interface {
	FetchDocument(ctx context.Context, rawURL string) (*stac.Document, error)
}

// Clock abstracts time for outcome timestamps.
type Clock interface {
	Now() time.Time
}

// visitKey normalizes a URL for visited-set membership, falling back to the
// raw string when it does not parse.
func visitKey(rawURL string) string {
	key, err := stac.NormalizeURL(rawURL)
	if err != nil {
		return rawURL
	}
	return key
}
