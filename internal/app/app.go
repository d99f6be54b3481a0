// Package app wires configuration into a runnable harvester: it builds the
// providers, engines, progress hub, and pipeline, and owns their shutdown.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/geoharvest/stac-harvester/internal/clock/system"
	"github.com/geoharvest/stac-harvester/internal/config"
	"github.com/geoharvest/stac-harvester/internal/database"
	"github.com/geoharvest/stac-harvester/internal/fetcher"
	"github.com/geoharvest/stac-harvester/internal/harvest"
	"github.com/geoharvest/stac-harvester/internal/hash/sha256"
	"github.com/geoharvest/stac-harvester/internal/id/uuid"
	"github.com/geoharvest/stac-harvester/internal/pipeline"
	"github.com/geoharvest/stac-harvester/internal/progress"
	"github.com/geoharvest/stac-harvester/internal/progress/sinks"
	"github.com/geoharvest/stac-harvester/internal/queue"
	"github.com/geoharvest/stac-harvester/internal/recon"
	"github.com/geoharvest/stac-harvester/internal/storage"
	"github.com/geoharvest/stac-harvester/internal/storage/gcs"
	"github.com/geoharvest/stac-harvester/internal/storage/local"
	"github.com/geoharvest/stac-harvester/internal/storage/memory"
)

// App holds the assembled harvester components.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Pipeline *pipeline.Pipeline
	DB       database.Provider
	Store    storage.Provider
	Queue    queue.Publisher
	Hub      *progress.Hub
}

// New assembles an App from configuration. Construction is fail-fast: a
// backend that cannot be reached surfaces here, not mid-run.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	store, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := buildDatabase(ctx, cfg)
	if err != nil {
		store.Close() //nolint:errcheck
		return nil, err
	}

	publisher, err := buildQueue(ctx, cfg, logger)
	if err != nil {
		store.Close() //nolint:errcheck
		db.Close()
		return nil, err
	}

	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		store.Close() //nolint:errcheck
		db.Close()
		publisher.Close() //nolint:errcheck
		return nil, err
	}
	hub := progress.NewHub(
		progress.Config{Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
	)

	httpFetcher := fetcher.New(fetcher.Config{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})
	clk := system.New()

	coordinator := harvest.NewCoordinator(
		harvest.NewLinkGraphEngine(httpFetcher, logger),
		harvest.NewPaginatedEngine(httpFetcher, logger),
		clk,
		logger,
	)
	planner := harvest.NewPlanner(harvest.PlannerConfig{
		LinkGraphMaxDepth:  cfg.Harvest.LinkGraphMaxDepth,
		LinkGraphHardLimit: cfg.Harvest.LinkGraphHardLimit,
		PaginatedMaxDepth:  cfg.Harvest.PaginatedMaxDepth,
		Overrides:          cfg.Harvest.Overrides,
	})
	reconClient := recon.New(recon.Config{
		IndexURL:  cfg.Recon.IndexURL,
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)

	pipe := pipeline.New(
		pipeline.Config{
			Prefix:           cfg.Storage.Prefix,
			EndpointParallel: cfg.Harvest.EndpointParallel,
		},
		reconClient,
		planner,
		coordinator,
		store,
		db,
		publisher,
		hub,
		uuid.NewGenerator(),
		clk,
		sha256.New(),
		logger,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Pipeline: pipe,
		DB:       db,
		Store:    store,
		Queue:    publisher,
		Hub:      hub,
	}, nil
}

// Close shuts the components down in reverse construction order.
func (a *App) Close(ctx context.Context) {
	if a.Hub != nil {
		if err := a.Hub.Close(ctx); err != nil {
			a.Logger.Warn("progress hub close failed", zap.Error(err))
		}
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn("queue close failed", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("storage close failed", zap.Error(err))
		}
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Provider, error) {
	switch cfg.Storage.Provider {
	case "local":
		provider, err := local.New(local.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("build local storage: %w", err)
		}
		return provider, nil
	case "gcs":
		provider, err := gcs.New(ctx, cfg.Storage.GCSBucket, logger)
		if err != nil {
			return nil, fmt.Errorf("build gcs storage: %w", err)
		}
		return provider, nil
	case "memory":
		return memory.New(), nil
	case "noop":
		return &storage.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}

func buildDatabase(ctx context.Context, cfg config.Config) (database.Provider, error) {
	switch cfg.DB.Provider {
	case "postgres":
		provider, err := database.NewPostgresProvider(ctx, database.PostgresConfig{
			DSN:      cfg.DB.DSN,
			RunTable: cfg.DB.RunTable,
			MaxConns: cfg.DB.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("build postgres provider: %w", err)
		}
		return provider, nil
	case "noop":
		return database.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown db provider %q", cfg.DB.Provider)
	}
}

func buildQueue(ctx context.Context, cfg config.Config, logger *zap.Logger) (queue.Publisher, error) {
	switch cfg.Queue.Provider {
	case "pubsub":
		publisher, err := queue.NewPubSubPublisher(ctx, cfg.Queue.ProjectID, cfg.Queue.TopicID, logger)
		if err != nil {
			return nil, fmt.Errorf("build pubsub publisher: %w", err)
		}
		return publisher, nil
	case "memory":
		return queue.NewMemoryPublisher(), nil
	case "noop":
		return queue.NoOpPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown queue provider %q", cfg.Queue.Provider)
	}
}
