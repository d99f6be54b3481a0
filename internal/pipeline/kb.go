package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/geoharvest/stac-harvester/internal/harvest"
)

// Entry is one endpoint's contribution to the knowledge base: catalog
// identity, traversal notes, and the full collection bodies.
type Entry struct {
	Slug         string            `json:"slug"`
	CatalogTitle string            `json:"catalog_title"`
	CatalogURL   string            `json:"catalog_url"`
	CrawlNotes   []string          `json:"crawl_notes"`
	Collections  []json.RawMessage `json:"collections"`
}

// buildKnowledgeBase assembles entries from successful outcomes, writes the
// digest-named artifact, and tallies the run summary.
func (p *Pipeline) buildKnowledgeBase(ctx context.Context, runID string, outcomes []harvest.Outcome) (Summary, error) {
	summary := Summary{RunID: runID, Endpoints: len(outcomes)}
	entries := make([]Entry, 0, len(outcomes))

	for _, outcome := range outcomes {
		switch outcome.Status {
		case harvest.OutcomeSucceeded:
			summary.Succeeded++
			entries = append(entries, entryFor(outcome))
		case harvest.OutcomeFailed:
			summary.Failed++
		case harvest.OutcomeSkipped:
			summary.Skipped++
		case harvest.OutcomeEmpty:
			summary.Empty++
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Summary{}, fmt.Errorf("marshal knowledge base: %w", err)
	}
	digest, err := p.hasher.Hash(data)
	if err != nil {
		return Summary{}, fmt.Errorf("hash knowledge base: %w", err)
	}
	if len(digest) > 12 {
		digest = digest[:12]
	}
	name := strings.TrimSuffix(KnowledgeBaseArtifact, ".json") + "-" + digest + ".json"
	objectName := path.Join(p.cfg.Prefix, runID, name)

	uri, err := p.store.Save(ctx, objectName, data)
	if err != nil {
		return Summary{}, fmt.Errorf("save knowledge base: %w", err)
	}
	summary.KnowledgeBaseURI = uri
	p.logger.Info("knowledge base written",
		zap.String("uri", uri),
		zap.Int("entries", len(entries)),
	)
	return summary, nil
}

func entryFor(outcome harvest.Outcome) Entry {
	entry := Entry{
		Slug:         outcome.Endpoint.Slug,
		CatalogTitle: outcome.Endpoint.Title,
		CatalogURL:   outcome.Endpoint.URL,
		CrawlNotes:   []string{},
		Collections:  []json.RawMessage{},
	}
	if outcome.Result != nil {
		if len(outcome.Result.Notes) > 0 {
			entry.CrawlNotes = outcome.Result.Notes
		}
		for _, record := range outcome.Result.Records {
			entry.Collections = append(entry.Collections, record.Raw)
		}
	}
	return entry
}
