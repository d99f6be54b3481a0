package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geoharvest/stac-harvester/internal/database"
	"github.com/geoharvest/stac-harvester/internal/fetcher"
	"github.com/geoharvest/stac-harvester/internal/harvest"
	"github.com/geoharvest/stac-harvester/internal/hash/sha256"
	"github.com/geoharvest/stac-harvester/internal/progress"
	"github.com/geoharvest/stac-harvester/internal/queue"
	"github.com/geoharvest/stac-harvester/internal/recon"
	"github.com/geoharvest/stac-harvester/internal/storage/memory"
)

type fixedID string

func (f fixedID) NewID() (string, error) { return string(f), nil }

// steppingClock advances one second per Now call.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

// recordingDB keeps every record handed to it.
type recordingDB struct {
	mu        sync.Mutex
	runs      []database.RunRecord
	endpoints []database.EndpointRecord
}

func (d *recordingDB) RecordRun(_ context.Context, run database.RunRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.runs = append(d.runs, run)
	return nil
}

func (d *recordingDB) RecordEndpoint(_ context.Context, rec database.EndpointRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoints = append(d.endpoints, rec)
	return nil
}

func (d *recordingDB) GetRun(_ context.Context, runID string) (database.RunRecord, error) {
	return database.RunRecord{ID: runID}, nil
}

func (d *recordingDB) ListEndpoints(context.Context, string) ([]database.EndpointRecord, error) {
	return nil, nil
}

func (d *recordingDB) Close() {}

// captureEmitter records emitted events synchronously.
type captureEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (e *captureEmitter) Emit(evt progress.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
}

func (e *captureEmitter) stages() []progress.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	stages := make([]progress.Stage, 0, len(e.events))
	for _, evt := range e.events {
		stages = append(stages, evt.Stage)
	}
	return stages
}

// catalogFixture serves a static catalog, an API endpoint, and a broken root.
func catalogFixture() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"type": "Catalog",
			"id": "static-root",
			"links": [{"rel": "child", "href": "collections/c1.json"}]
		}`))
	})
	mux.HandleFunc("/collections/c1.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"type": "Collection", "id": "c1"}`))
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"collections": [{"id": "x"}, {"id": "y"}]}`))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})
	return httptest.NewServer(mux)
}

func indexFixture(catalogURL string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"slug": "static-cat", "title": "Static", "url": "` + catalogURL + `/catalog.json", "isPrivate": false},
			{"slug": "api-cat", "title": "API", "url": "` + catalogURL + `/api", "isPrivate": false},
			{"slug": "down-cat", "title": "Down", "url": "` + catalogURL + `/down", "isPrivate": false}
		]`))
	}))
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	catalogs := catalogFixture()
	defer catalogs.Close()
	index := indexFixture(catalogs.URL)
	defer index.Close()

	httpFetcher := fetcher.New(fetcher.Config{UserAgent: "test"})
	coordinator := harvest.NewCoordinator(
		harvest.NewLinkGraphEngine(httpFetcher, nil),
		harvest.NewPaginatedEngine(httpFetcher, nil),
		newSteppingClock(),
		nil,
	)
	planner := harvest.NewPlanner(harvest.PlannerConfig{})
	reconClient := recon.New(recon.Config{IndexURL: index.URL, UserAgent: "test"}, nil)

	store := memory.New()
	db := &recordingDB{}
	publisher := queue.NewMemoryPublisher()
	emitter := &captureEmitter{}

	pipe := New(
		Config{Prefix: "stac_summaries", EndpointParallel: 2},
		reconClient,
		planner,
		coordinator,
		store,
		db,
		publisher,
		emitter,
		fixedID("run-test"),
		newSteppingClock(),
		sha256.New(),
		nil,
	)

	summary, err := pipe.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, "run-test", summary.RunID)
	require.Equal(t, 3, summary.Endpoints)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.Skipped)
	require.Zero(t, summary.Failed)
	require.Zero(t, summary.Empty)
	require.True(t, strings.HasPrefix(summary.KnowledgeBaseURI,
		"memory://stac_summaries/run-test/stac_knowledge_base-"))

	t.Run("stage artifacts are written", func(t *testing.T) {
		profiles, ok := store.Get("stac_summaries/run-test/" + ProfilesArtifact)
		require.True(t, ok)
		var descriptors []harvest.EndpointDescriptor
		require.NoError(t, json.Unmarshal(profiles, &descriptors))
		require.Len(t, descriptors, 3)

		plan, ok := store.Get("stac_summaries/run-test/" + PlanArtifact)
		require.True(t, ok)
		var strategies map[string]harvest.Strategy
		require.NoError(t, json.Unmarshal(plan, &strategies))
		require.Equal(t, harvest.StrategyLinkGraph, strategies["static-cat"].Kind)
		require.Equal(t, harvest.StrategyPaginated, strategies["api-cat"].Kind)
		require.Equal(t, harvest.StrategySkip, strategies["down-cat"].Kind)
	})

	t.Run("knowledge base holds one entry per succeeded endpoint", func(t *testing.T) {
		objectName := strings.TrimPrefix(summary.KnowledgeBaseURI, "memory://")
		data, ok := store.Get(objectName)
		require.True(t, ok)

		var entries []Entry
		require.NoError(t, json.Unmarshal(data, &entries))
		require.Len(t, entries, 2)

		bySlug := make(map[string]Entry, len(entries))
		for _, entry := range entries {
			bySlug[entry.Slug] = entry
		}
		require.Len(t, bySlug["static-cat"].Collections, 2)
		require.Len(t, bySlug["api-cat"].Collections, 2)
		require.Equal(t, []string{"Single endpoint crawl."}, bySlug["api-cat"].CrawlNotes)
	})

	t.Run("run and endpoint rows are recorded", func(t *testing.T) {
		require.Len(t, db.runs, 1)
		require.Equal(t, "run-test", db.runs[0].ID)
		require.Equal(t, 2, db.runs[0].Succeeded)
		require.Len(t, db.endpoints, 3)
	})

	t.Run("notifications published for successes only", func(t *testing.T) {
		notes := publisher.Notifications()
		require.Len(t, notes, 2)
		for _, note := range notes {
			require.Equal(t, "run-test", note.RunID)
			require.Equal(t, "succeeded", note.Status)
		}
	})

	t.Run("progress stream brackets the run", func(t *testing.T) {
		stages := emitter.stages()
		require.Equal(t, progress.StageRunStart, stages[0])
		require.Equal(t, progress.StageRunDone, stages[len(stages)-1])

		counts := make(map[progress.Stage]int)
		for _, stage := range stages {
			counts[stage]++
		}
		require.Equal(t, 3, counts[progress.StageEndpointStart])
		require.Equal(t, 2, counts[progress.StageEndpointDone])
		require.Equal(t, 1, counts[progress.StageEndpointSkip])
	})
}

func TestPipelineRunFailsWhenReconFails(t *testing.T) {
	t.Parallel()

	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer index.Close()

	pipe := New(
		Config{Prefix: "stac_summaries"},
		recon.New(recon.Config{IndexURL: index.URL, UserAgent: "test"}, nil),
		harvest.NewPlanner(harvest.PlannerConfig{}),
		harvest.NewCoordinator(nil, nil, newSteppingClock(), nil),
		memory.New(),
		&recordingDB{},
		queue.NoOpPublisher{},
		nil,
		fixedID("run-x"),
		newSteppingClock(),
		sha256.New(),
		nil,
	)

	_, err := pipe.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "reconnaissance")
}
