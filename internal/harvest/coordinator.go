package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Coordinator dispatches each endpoint to the engine its strategy names and
// wraps the result in an Outcome. It holds no per-endpoint state; every
// traversal invocation owns its own visited set and accumulator.
type Coordinator struct {
	linkGraph *LinkGraphEngine
	paginated *PaginatedEngine
	clock     Clock
	logger    *zap.Logger
}

// NewCoordinator constructs a Coordinator over the two engines.
func NewCoordinator(linkGraph *LinkGraphEngine, paginated *PaginatedEngine, clock Clock, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		linkGraph: linkGraph,
		paginated: paginated,
		clock:     clock,
		logger:    logger,
	}
}

// Run harvests one endpoint according to its strategy. Skips are reported
// as skipped rather than failed, and a clean traversal that recognized no
// records is reported as empty, a distinct cause from an engine failure.
func (c *Coordinator) Run(ctx context.Context, endpoint EndpointDescriptor, strategy Strategy) Outcome {
	started := c.clock.Now()
	outcome := Outcome{Endpoint: endpoint, StartedAt: started}

	switch strategy.Kind {
	case StrategySkip:
		outcome.Status = OutcomeSkipped
		c.logger.Info("endpoint skipped", zap.String("slug", endpoint.Slug))

	case StrategyLinkGraph:
		c.logger.Info("link-graph harvest",
			zap.String("slug", endpoint.Slug),
			zap.Int("max_depth", strategy.MaxDepth),
			zap.Int("hard_limit", strategy.HardLimit),
		)
		result := c.linkGraph.Traverse(ctx, endpoint.URL, strategy.MaxDepth, strategy.HardLimit)
		outcome.Result = &result
		outcome.Status = statusFor(result)

	case StrategyPaginated:
		c.logger.Info("paginated harvest", zap.String("slug", endpoint.Slug))
		result, err := c.paginated.Traverse(ctx, endpoint.URL)
		if err != nil {
			outcome.Status = OutcomeFailed
			outcome.Error = err.Error()
			c.logger.Warn("paginated harvest failed",
				zap.String("slug", endpoint.Slug),
				zap.Error(err),
			)
			break
		}
		outcome.Result = &result
		outcome.Status = statusFor(result)

	default:
		outcome.Status = OutcomeFailed
		outcome.Error = fmt.Sprintf("unknown strategy %q", strategy.Kind)
	}

	outcome.Duration = c.clock.Now().Sub(started)

	if outcome.Status == OutcomeSucceeded {
		c.logger.Info("harvest complete",
			zap.String("slug", endpoint.Slug),
			zap.Int("records", len(outcome.Result.Records)),
			zap.Strings("notes", outcome.Result.Notes),
		)
	}
	return outcome
}

func statusFor(result TraversalResult) OutcomeStatus {
	if len(result.Records) == 0 {
		return OutcomeEmpty
	}
	return OutcomeSucceeded
}
