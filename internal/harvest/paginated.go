package harvest

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/geoharvest/stac-harvester/internal/stac"
)

// paginatedRels are the link relations the paginated engine follows.
var paginatedRels = stac.RelSet("child", "data", "collection", "children")

// PaginatedEngine crawls API-style catalogs with a sequential queue walk.
// A root whose children are independent sub-catalogs (a federation) is
// split apart and each sub-catalog crawled on its own; otherwise the root
// itself is the single crawl target. The per-sub-catalog worker stays
// strictly sequential because its soft limit and id-keyed dedup are
// order-sensitive.
type PaginatedEngine struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewPaginatedEngine constructs a PaginatedEngine.
func NewPaginatedEngine(fetcher Fetcher, logger *zap.Logger) *PaginatedEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaginatedEngine{fetcher: fetcher, logger: logger}
}

// Traverse fetches the root once to detect federation, then runs the queue
// worker over each sub-catalog root. A failure on the root fetch is fatal
// for the endpoint; every later failure skips one URL and continues.
func (e *PaginatedEngine) Traverse(ctx context.Context, startURL string) (TraversalResult, error) {
	root, err := e.fetcher.FetchDocument(ctx, startURL)
	if err != nil {
		return TraversalResult{}, fmt.Errorf("fetch root %s: %w", startURL, err)
	}

	var (
		records []CollectionRecord
		notes   []string
	)

	childLinks := childLinksOf(root)
	if len(childLinks) > 0 && !hasMasterCollectionsLink(root) {
		notes = append(notes, fmt.Sprintf("Federated crawl with %d children.", len(childLinks)))
		for _, link := range childLinks {
			href := stac.ResolveReference(startURL, link.Href)
			if href == "" || strings.HasSuffix(href, ".json") {
				continue
			}
			e.logger.Debug("crawling sub-catalog",
				zap.String("root", startURL),
				zap.String("sub_catalog", href),
			)
			records = append(records, e.crawlSubCatalog(ctx, href)...)
		}
	} else {
		notes = append(notes, "Single endpoint crawl.")
		records = append(records, e.crawlSubCatalog(ctx, startURL)...)
	}

	return TraversalResult{Records: records, Notes: notes}, nil
}

// crawlSubCatalog is the Phase B worker: a FIFO queue walk that upserts
// records by id (last write wins) and stops once it has collected as many
// unique records as the first `collections` page advertised.
func (e *PaginatedEngine) crawlSubCatalog(ctx context.Context, subRoot string) []CollectionRecord {
	var (
		order     []string
		unique    = make(map[string]CollectionRecord)
		softLimit = 0
	)

	queue := []string{subRoot}
	visited := map[string]struct{}{visitKey(subRoot): {}}

	for len(queue) > 0 {
		if softLimit > 0 && len(unique) >= softLimit {
			break
		}
		if ctx.Err() != nil {
			break
		}

		rawURL := queue[0]
		queue = queue[1:]

		doc, err := e.fetcher.FetchDocument(ctx, rawURL)
		if err != nil {
			e.logger.Debug("queue fetch failed", zap.String("url", rawURL), zap.Error(err))
			continue
		}

		if doc.HasCollections() {
			if softLimit == 0 {
				softLimit = len(doc.Collections)
			}
			for _, item := range doc.Collections {
				if item.ID == "" {
					continue
				}
				if _, ok := unique[item.ID]; !ok {
					order = append(order, item.ID)
				}
				unique[item.ID] = CollectionRecord{ID: item.ID, Raw: item.Raw}
			}
		}

		if doc.Type == "Collection" && doc.ID != "" {
			if _, ok := unique[doc.ID]; !ok {
				order = append(order, doc.ID)
			}
			unique[doc.ID] = CollectionRecord{ID: doc.ID, Raw: doc.Raw}
		}

		cls := stac.Classify(doc, paginatedRels)
		for _, link := range cls.ChildLinks {
			href := stac.ResolveReference(rawURL, link.Href)
			if href == "" || strings.HasSuffix(href, ".json") {
				continue
			}
			key := visitKey(href)
			if _, seen := visited[key]; seen {
				continue
			}
			// Marked visited at enqueue time so multiple pages pointing at
			// the same URL cannot re-enqueue it.
			visited[key] = struct{}{}
			queue = append(queue, href)
		}
	}

	records := make([]CollectionRecord, 0, len(order))
	for _, id := range order {
		records = append(records, unique[id])
	}
	return records
}

func childLinksOf(doc *stac.Document) []stac.Link {
	var children []stac.Link
	for _, link := range doc.Links {
		if link.Rel == "child" {
			children = append(children, link)
		}
	}
	return children
}

// hasMasterCollectionsLink reports whether any link points at an aggregated
// /collections listing, which marks the catalog as a single endpoint even
// when it also exposes child links.
func hasMasterCollectionsLink(doc *stac.Document) bool {
	for _, link := range doc.Links {
		if strings.HasSuffix(link.Href, "/collections") || strings.HasSuffix(link.Href, "/collections/") {
			return true
		}
	}
	return false
}
