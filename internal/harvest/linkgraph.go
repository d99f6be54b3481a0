package harvest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoharvest/stac-harvester/internal/stac"
)

// linkGraphRels are the link relations the link-graph engine follows.
var linkGraphRels = stac.RelSet("child", "collection")

// LinkGraphEngine walks a static catalog's child/collection link graph with
// a level-synchronous breadth-first search. Every URL in the current level
// is fetched concurrently; the next level is computed only after the whole
// level has resolved, so depth is monotone across levels and a failed fetch
// costs nothing but its own subtree.
type LinkGraphEngine struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewLinkGraphEngine constructs a LinkGraphEngine.
func NewLinkGraphEngine(fetcher Fetcher, logger *zap.Logger) *LinkGraphEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkGraphEngine{fetcher: fetcher, logger: logger}
}

// levelFetch pairs a fetched document with the URL it came from, which is
// the resolution base for its links.
type levelFetch struct {
	url string
	doc *stac.Document
}

// Traverse crawls outward from startURL until the graph is exhausted, the
// depth bound is reached, or the record count passes hardLimit. The hard
// limit is checked between levels only, so the final level may overshoot it.
func (e *LinkGraphEngine) Traverse(ctx context.Context, startURL string, maxDepth, hardLimit int) TraversalResult {
	var (
		records []CollectionRecord
		notes   []string
	)

	frontier := []string{startURL}
	visited := map[string]struct{}{visitKey(startURL): {}}
	depth := 0

	for len(frontier) > 0 && len(records) < hardLimit && depth < maxDepth {
		fetched := e.fetchLevel(ctx, frontier)

		var next []string
		for _, f := range fetched {
			if f.doc == nil {
				continue
			}
			cls := stac.Classify(f.doc, linkGraphRels)
			if cls.IsCollection {
				records = append(records, CollectionRecord{ID: f.doc.ID, Raw: f.doc.Raw})
			}
			for _, link := range cls.ChildLinks {
				href := stac.ResolveReference(f.url, link.Href)
				if href == "" {
					continue
				}
				key := visitKey(href)
				if _, seen := visited[key]; seen {
					continue
				}
				visited[key] = struct{}{}
				next = append(next, href)
			}
		}

		frontier = next
		depth++

		if ctx.Err() != nil {
			break
		}
	}

	if len(records) >= hardLimit {
		notes = append(notes, fmt.Sprintf("Reached collection limit of %d.", hardLimit))
	}
	if depth >= maxDepth && len(frontier) > 0 {
		notes = append(notes, fmt.Sprintf("Reached depth limit of %d.", maxDepth))
	}

	return TraversalResult{Records: records, Notes: notes}
}

// fetchLevel issues every fetch in the level concurrently and blocks until
// all of them have completed. Failures leave a nil document in place; the
// result order matches the frontier order so link resolution and record
// emission stay deterministic given fixed document contents.
func (e *LinkGraphEngine) fetchLevel(ctx context.Context, frontier []string) []levelFetch {
	results := make([]levelFetch, len(frontier))

	g, gctx := errgroup.WithContext(ctx)
	for i, rawURL := range frontier {
		results[i].url = rawURL
		g.Go(func() error {
			doc, err := e.fetcher.FetchDocument(gctx, rawURL)
			if err != nil {
				e.logger.Debug("level fetch failed", zap.String("url", rawURL), zap.Error(err))
				return nil
			}
			results[i].doc = doc
			return nil
		})
	}
	// Goroutines swallow their errors, so Wait is purely a barrier.
	_ = g.Wait()

	return results
}
