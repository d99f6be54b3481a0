package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlannerClassify(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(PlannerConfig{
		Overrides: []string{"known-bad"},
	})

	tests := []struct {
		name     string
		endpoint EndpointDescriptor
		want     Strategy
	}{
		{
			name:     "unreachable endpoint is skipped",
			endpoint: EndpointDescriptor{Slug: "down", URL: "https://down.example.com", Status: EndpointFailed},
			want:     Strategy{Kind: StrategySkip},
		},
		{
			name:     "manual override is skipped even when reachable",
			endpoint: EndpointDescriptor{Slug: "known-bad", URL: "https://bad.example.com/catalog.json", Status: EndpointOK},
			want:     Strategy{Kind: StrategySkip},
		},
		{
			name:     "json suffix gets link graph",
			endpoint: EndpointDescriptor{Slug: "static", URL: "https://example.com/catalog.json", Status: EndpointOK},
			want:     Strategy{Kind: StrategyLinkGraph, MaxDepth: 3, HardLimit: 300},
		},
		{
			name:     "f=json suffix gets link graph",
			endpoint: EndpointDescriptor{Slug: "arcgis", URL: "https://example.com/rest?f=json", Status: EndpointOK},
			want:     Strategy{Kind: StrategyLinkGraph, MaxDepth: 3, HardLimit: 300},
		},
		{
			name:     "api root gets paginated",
			endpoint: EndpointDescriptor{Slug: "api", URL: "https://api.example.com/stac/v1", Status: EndpointOK},
			want:     Strategy{Kind: StrategyPaginated, MaxDepth: 10},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, planner.Classify(tc.endpoint))
		})
	}
}

func TestPlannerConfigOverridesDefaults(t *testing.T) {
	t.Parallel()

	planner := NewPlanner(PlannerConfig{
		LinkGraphMaxDepth:  5,
		LinkGraphHardLimit: 50,
	})

	got := planner.Classify(EndpointDescriptor{
		Slug:   "static",
		URL:    "https://example.com/catalog.json",
		Status: EndpointOK,
	})
	require.Equal(t, Strategy{Kind: StrategyLinkGraph, MaxDepth: 5, HardLimit: 50}, got)
}
