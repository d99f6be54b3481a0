// Package pipeline sequences the three harvest stages: reconnaissance,
// plan generation, and knowledge-base construction. Each stage writes its
// artifact through the storage provider so a run leaves an auditable trail.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoharvest/stac-harvester/internal/database"
	"github.com/geoharvest/stac-harvester/internal/harvest"
	"github.com/geoharvest/stac-harvester/internal/metrics"
	"github.com/geoharvest/stac-harvester/internal/progress"
	"github.com/geoharvest/stac-harvester/internal/queue"
	"github.com/geoharvest/stac-harvester/internal/recon"
	"github.com/geoharvest/stac-harvester/internal/storage"
)

// Artifact names written under the run's storage prefix.
const (
	ProfilesArtifact      = "catalog_profiles.json"
	PlanArtifact          = "crawl_plan.json"
	KnowledgeBaseArtifact = "stac_knowledge_base.json"
)

// Hasher digests knowledge-base payloads for artifact naming.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Config controls pipeline fan-out and artifact placement.
type Config struct {
	// Prefix is the storage key prefix for run artifacts.
	Prefix string
	// EndpointParallel bounds how many endpoint harvests run at once.
	EndpointParallel int
}

// Pipeline wires the stages to their collaborators.
type Pipeline struct {
	cfg         Config
	reconClient *recon.Client
	planner     *harvest.Planner
	coordinator *harvest.Coordinator
	store       storage.Provider
	db          database.Provider
	publisher   queue.Publisher
	emitter     progress.Emitter
	idGen       IDGenerator
	clock       harvest.Clock
	hasher      Hasher
	logger      *zap.Logger
}

// New constructs a Pipeline.
func New(
	cfg Config,
	reconClient *recon.Client,
	planner *harvest.Planner,
	coordinator *harvest.Coordinator,
	store storage.Provider,
	db database.Provider,
	publisher queue.Publisher,
	emitter progress.Emitter,
	idGen IDGenerator,
	clock harvest.Clock,
	hasher Hasher,
	logger *zap.Logger,
) *Pipeline {
	if cfg.EndpointParallel <= 0 {
		cfg.EndpointParallel = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		reconClient: reconClient,
		planner:     planner,
		coordinator: coordinator,
		store:       store,
		db:          db,
		publisher:   publisher,
		emitter:     emitter,
		idGen:       idGen,
		clock:       clock,
		hasher:      hasher,
		logger:      logger,
	}
}

// Summary reports the run-level counts the aggregation layer exposes.
type Summary struct {
	RunID            string `json:"run_id"`
	Endpoints        int    `json:"endpoints"`
	Succeeded        int    `json:"succeeded"`
	Failed           int    `json:"failed"`
	Skipped          int    `json:"skipped"`
	Empty            int    `json:"empty"`
	KnowledgeBaseURI string `json:"knowledge_base_uri,omitempty"`
}

// Run executes the full pipeline. It fails only when a stage that the rest
// of the run depends on fails (reconnaissance, artifact writes); individual
// endpoint failures are recorded and do not halt the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	runID, err := p.idGen.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	startedAt := p.clock.Now()
	p.emit(progress.Event{RunID: runID, TS: startedAt, Stage: progress.StageRunStart})
	p.logger.Info("harvest run starting", zap.String("run_id", runID))

	descriptors, err := p.Profile(ctx, runID)
	if err != nil {
		return Summary{}, err
	}

	plan, err := p.Plan(ctx, runID, descriptors)
	if err != nil {
		return Summary{}, err
	}

	outcomes := p.HarvestAll(ctx, runID, descriptors, plan)

	summary, err := p.buildKnowledgeBase(ctx, runID, outcomes)
	if err != nil {
		return Summary{}, err
	}

	finishedAt := p.clock.Now()
	if err := p.db.RecordRun(ctx, database.RunRecord{
		ID:               runID,
		StartedAt:        startedAt,
		FinishedAt:       finishedAt,
		Endpoints:        summary.Endpoints,
		Succeeded:        summary.Succeeded,
		Failed:           summary.Failed,
		Skipped:          summary.Skipped,
		Empty:            summary.Empty,
		KnowledgeBaseURI: summary.KnowledgeBaseURI,
	}); err != nil {
		p.logger.Warn("record run failed", zap.String("run_id", runID), zap.Error(err))
	}

	p.emit(progress.Event{
		RunID: runID,
		TS:    finishedAt,
		Stage: progress.StageRunDone,
		Dur:   finishedAt.Sub(startedAt),
	})
	p.logger.Info("harvest run finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("empty", summary.Empty),
	)
	return summary, nil
}

// Profile runs reconnaissance and writes the profile artifact.
func (p *Pipeline) Profile(ctx context.Context, runID string) ([]harvest.EndpointDescriptor, error) {
	descriptors, err := p.reconClient.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconnaissance: %w", err)
	}
	if err := p.saveArtifact(ctx, runID, ProfilesArtifact, descriptors); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// Plan classifies every endpoint and writes the plan artifact.
func (p *Pipeline) Plan(ctx context.Context, runID string, descriptors []harvest.EndpointDescriptor) (map[string]harvest.Strategy, error) {
	plan := make(map[string]harvest.Strategy, len(descriptors))
	for _, descriptor := range descriptors {
		plan[descriptor.Slug] = p.planner.Classify(descriptor)
	}
	if err := p.saveArtifact(ctx, runID, PlanArtifact, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// HarvestAll dispatches every endpoint to the coordinator with bounded
// parallelism. Outcome order matches descriptor order.
func (p *Pipeline) HarvestAll(
	ctx context.Context,
	runID string,
	descriptors []harvest.EndpointDescriptor,
	plan map[string]harvest.Strategy,
) []harvest.Outcome {
	outcomes := make([]harvest.Outcome, len(descriptors))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.EndpointParallel)

	for i, descriptor := range descriptors {
		g.Go(func() error {
			strategy := plan[descriptor.Slug]
			p.emit(progress.Event{
				RunID:    runID,
				TS:       p.clock.Now(),
				Stage:    progress.StageEndpointStart,
				Endpoint: descriptor.Slug,
			})

			outcome := p.coordinator.Run(gctx, descriptor, strategy)
			outcomes[i] = outcome

			mu.Lock()
			p.finishEndpoint(gctx, runID, strategy, outcome)
			mu.Unlock()
			return nil
		})
	}
	// Workers swallow their errors, so Wait is purely a barrier.
	_ = g.Wait()

	return outcomes
}

// finishEndpoint records, publishes, and emits for one completed endpoint.
// Serialized by the caller so the database and publisher see one endpoint
// at a time.
func (p *Pipeline) finishEndpoint(ctx context.Context, runID string, strategy harvest.Strategy, outcome harvest.Outcome) {
	recordCount := 0
	var notes []string
	if outcome.Result != nil {
		recordCount = len(outcome.Result.Records)
		notes = outcome.Result.Notes
	}
	metrics.TotalRecords.Add(float64(recordCount))

	if err := p.db.RecordEndpoint(ctx, database.EndpointRecord{
		RunID:       runID,
		Slug:        outcome.Endpoint.Slug,
		Title:       outcome.Endpoint.Title,
		URL:         outcome.Endpoint.URL,
		Strategy:    string(strategy.Kind),
		Status:      string(outcome.Status),
		Records:     recordCount,
		Notes:       notes,
		Error:       outcome.Error,
		HarvestedAt: outcome.StartedAt,
		Duration:    outcome.Duration,
	}); err != nil {
		p.logger.Warn("record endpoint failed",
			zap.String("slug", outcome.Endpoint.Slug),
			zap.Error(err),
		)
	}

	if outcome.Status == harvest.OutcomeSucceeded {
		if err := p.publisher.Publish(ctx, queue.Notification{
			RunID:   runID,
			Slug:    outcome.Endpoint.Slug,
			Status:  string(outcome.Status),
			Records: recordCount,
		}); err != nil {
			p.logger.Warn("publish notification failed",
				zap.String("slug", outcome.Endpoint.Slug),
				zap.Error(err),
			)
		}
	}

	evt := progress.Event{
		RunID:    runID,
		TS:       p.clock.Now(),
		Endpoint: outcome.Endpoint.Slug,
		Records:  int64(recordCount),
		Dur:      outcome.Duration,
		Note:     outcome.Error,
	}
	switch outcome.Status {
	case harvest.OutcomeSkipped:
		evt.Stage = progress.StageEndpointSkip
	case harvest.OutcomeFailed:
		evt.Stage = progress.StageEndpointError
	default:
		evt.Stage = progress.StageEndpointDone
	}
	p.emit(evt)
}

func (p *Pipeline) emit(evt progress.Event) {
	if p.emitter != nil {
		p.emitter.Emit(evt)
	}
}

func (p *Pipeline) saveArtifact(ctx context.Context, runID, name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	objectName := path.Join(p.cfg.Prefix, runID, name)
	uri, err := p.store.Save(ctx, objectName, data)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	p.logger.Info("artifact written", zap.String("uri", uri))
	return nil
}
