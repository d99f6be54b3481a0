package database

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool.
type PostgresConfig struct {
	DSN             string
	RunTable        string
	EndpointTable   string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

// pgxIface is the slice of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type pgxIface interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// PostgresProvider persists run metadata in Postgres.
type PostgresProvider struct {
	pool          pgxIface
	runTable      string
	endpointTable string
}

// NewPostgresProvider connects a pool using the provided config.
func NewPostgresProvider(ctx context.Context, cfg PostgresConfig) (*PostgresProvider, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresProviderWithPool(pool, cfg.RunTable, cfg.EndpointTable)
}

// NewPostgresProviderWithPool constructs a provider from an existing pool
// (primarily for testing).
func NewPostgresProviderWithPool(pool pgxIface, runTable, endpointTable string) (*PostgresProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if runTable == "" {
		runTable = "harvest_runs"
	}
	if endpointTable == "" {
		endpointTable = "harvest_endpoints"
	}
	for _, table := range []string{runTable, endpointTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &PostgresProvider{
		pool:          pool,
		runTable:      runTable,
		endpointTable: endpointTable,
	}, nil
}

// Close releases the underlying pool resources.
func (p *PostgresProvider) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

// RecordRun upserts a run summary row.
func (p *PostgresProvider) RecordRun(ctx context.Context, run RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	started_at,
	finished_at,
	endpoints,
	succeeded,
	failed,
	skipped,
	empty,
	knowledge_base_uri
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)
ON CONFLICT (id) DO UPDATE SET
	finished_at = EXCLUDED.finished_at,
	endpoints = EXCLUDED.endpoints,
	succeeded = EXCLUDED.succeeded,
	failed = EXCLUDED.failed,
	skipped = EXCLUDED.skipped,
	empty = EXCLUDED.empty,
	knowledge_base_uri = EXCLUDED.knowledge_base_uri`, p.runTable)

	args := []any{
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Endpoints,
		run.Succeeded,
		run.Failed,
		run.Skipped,
		run.Empty,
		run.KnowledgeBaseURI,
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordEndpoint inserts one endpoint outcome row.
func (p *PostgresProvider) RecordEndpoint(ctx context.Context, rec EndpointRecord) error {
	if rec.RunID == "" || rec.Slug == "" {
		return fmt.Errorf("run id and slug are required")
	}
	notesJSON, err := json.Marshal(rec.Notes)
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	slug,
	title,
	url,
	strategy,
	status,
	records,
	notes,
	error_text,
	harvested_at,
	duration_ms
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, p.endpointTable)

	args := []any{
		rec.RunID,
		rec.Slug,
		rec.Title,
		rec.URL,
		rec.Strategy,
		rec.Status,
		rec.Records,
		notesJSON,
		rec.Error,
		rec.HarvestedAt,
		rec.Duration.Milliseconds(),
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert endpoint: %w", err)
	}
	return nil
}

// GetRun fetches one run summary row.
func (p *PostgresProvider) GetRun(ctx context.Context, runID string) (RunRecord, error) {
	query := fmt.Sprintf(`
SELECT id, started_at, finished_at, endpoints, succeeded, failed, skipped, empty, knowledge_base_uri
FROM %s WHERE id = $1`, p.runTable)

	var run RunRecord
	err := p.pool.QueryRow(ctx, query, runID).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Endpoints,
		&run.Succeeded,
		&run.Failed,
		&run.Skipped,
		&run.Empty,
		&run.KnowledgeBaseURI,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("select run: %w", err)
	}
	return run, nil
}

// ListEndpoints fetches the endpoint outcome rows for one run.
func (p *PostgresProvider) ListEndpoints(ctx context.Context, runID string) ([]EndpointRecord, error) {
	query := fmt.Sprintf(`
SELECT run_id, slug, title, url, strategy, status, records, notes, error_text, harvested_at, duration_ms
FROM %s WHERE run_id = $1 ORDER BY slug`, p.endpointTable)

	rows, err := p.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("select endpoints: %w", err)
	}
	defer rows.Close()

	var records []EndpointRecord
	for rows.Next() {
		var (
			rec        EndpointRecord
			notesJSON  []byte
			durationMs int64
		)
		if err := rows.Scan(
			&rec.RunID,
			&rec.Slug,
			&rec.Title,
			&rec.URL,
			&rec.Strategy,
			&rec.Status,
			&rec.Records,
			&notesJSON,
			&rec.Error,
			&rec.HarvestedAt,
			&durationMs,
		); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		if len(notesJSON) > 0 {
			if err := json.Unmarshal(notesJSON, &rec.Notes); err != nil {
				return nil, fmt.Errorf("unmarshal notes: %w", err)
			}
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate endpoints: %w", err)
	}
	return records, nil
}
