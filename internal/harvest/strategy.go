package harvest

import "strings"

// PlannerConfig carries the default strategy parameters and the manual
// override table. It is built once from configuration and never mutated.
type PlannerConfig struct {
	// LinkGraphMaxDepth and LinkGraphHardLimit bound the link-graph engine.
	LinkGraphMaxDepth  int
	LinkGraphHardLimit int
	// PaginatedMaxDepth is carried on the paginated strategy. The traversal
	// does not consult it yet; see DESIGN.md.
	PaginatedMaxDepth int
	// Overrides lists endpoint slugs that are always skipped.
	Overrides []string
}

// Default strategy parameters, matching the published crawler profile.
const (
	DefaultLinkGraphMaxDepth  = 3
	DefaultLinkGraphHardLimit = 300
	DefaultPaginatedMaxDepth  = 10
)

// Planner assigns a harvest strategy to each endpoint.
type Planner struct {
	cfg       PlannerConfig
	overrides map[string]struct{}
}

// NewPlanner builds a Planner, filling zero-valued parameters with the
// defaults above.
func NewPlanner(cfg PlannerConfig) *Planner {
	if cfg.LinkGraphMaxDepth <= 0 {
		cfg.LinkGraphMaxDepth = DefaultLinkGraphMaxDepth
	}
	if cfg.LinkGraphHardLimit <= 0 {
		cfg.LinkGraphHardLimit = DefaultLinkGraphHardLimit
	}
	if cfg.PaginatedMaxDepth <= 0 {
		cfg.PaginatedMaxDepth = DefaultPaginatedMaxDepth
	}
	overrides := make(map[string]struct{}, len(cfg.Overrides))
	for _, slug := range cfg.Overrides {
		overrides[slug] = struct{}{}
	}
	return &Planner{cfg: cfg, overrides: overrides}
}

// Classify selects the strategy for one endpoint. Unreachable and manually
// overridden endpoints are skipped; root URLs that point directly at a JSON
// document get the link-graph engine; everything else is assumed to be an
// API-style endpoint and gets the paginated engine.
func (p *Planner) Classify(endpoint EndpointDescriptor) Strategy {
	if endpoint.Status != EndpointOK {
		return Strategy{Kind: StrategySkip}
	}
	if _, ok := p.overrides[endpoint.Slug]; ok {
		return Strategy{Kind: StrategySkip}
	}
	if isStaticRoot(endpoint.URL) {
		return Strategy{
			Kind:      StrategyLinkGraph,
			MaxDepth:  p.cfg.LinkGraphMaxDepth,
			HardLimit: p.cfg.LinkGraphHardLimit,
		}
	}
	return Strategy{
		Kind:     StrategyPaginated,
		MaxDepth: p.cfg.PaginatedMaxDepth,
	}
}

func isStaticRoot(rawURL string) bool {
	return strings.HasSuffix(rawURL, ".json") || strings.HasSuffix(rawURL, "f=json")
}
