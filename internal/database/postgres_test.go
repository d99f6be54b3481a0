package database

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresProviderWithPool(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	t.Run("defaults table names", func(t *testing.T) {
		provider, err := NewPostgresProviderWithPool(mock, "", "")
		require.NoError(t, err)
		require.Equal(t, "harvest_runs", provider.runTable)
		require.Equal(t, "harvest_endpoints", provider.endpointTable)
	})

	t.Run("rejects invalid table names", func(t *testing.T) {
		_, err := NewPostgresProviderWithPool(mock, "runs; DROP TABLE", "")
		require.Error(t, err)
	})

	t.Run("rejects nil pool", func(t *testing.T) {
		_, err := NewPostgresProviderWithPool(nil, "", "")
		require.Error(t, err)
	})
}

func TestRecordRunUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider, err := NewPostgresProviderWithPool(mock, "harvest_runs", "harvest_endpoints")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	run := RunRecord{
		ID:               "run-1",
		StartedAt:        now,
		FinishedAt:       now.Add(time.Minute),
		Endpoints:        10,
		Succeeded:        7,
		Failed:           1,
		Skipped:          1,
		Empty:            1,
		KnowledgeBaseURI: "file:///data/kb.json",
	}

	mock.ExpectExec("INSERT INTO harvest_runs").
		WithArgs(
			run.ID,
			run.StartedAt,
			run.FinishedAt,
			run.Endpoints,
			run.Succeeded,
			run.Failed,
			run.Skipped,
			run.Empty,
			run.KnowledgeBaseURI,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, provider.RecordRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider, err := NewPostgresProviderWithPool(mock, "", "")
	require.NoError(t, err)

	require.Error(t, provider.RecordRun(context.Background(), RunRecord{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordEndpointInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider, err := NewPostgresProviderWithPool(mock, "harvest_runs", "harvest_endpoints")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := EndpointRecord{
		RunID:       "run-1",
		Slug:        "earth-search",
		Title:       "Earth Search",
		URL:         "https://earth-search.example.com/v1",
		Strategy:    "Paginated",
		Status:      "succeeded",
		Records:     42,
		Notes:       []string{"Single endpoint crawl."},
		HarvestedAt: now,
		Duration:    1500 * time.Millisecond,
	}

	mock.ExpectExec("INSERT INTO harvest_endpoints").
		WithArgs(
			rec.RunID,
			rec.Slug,
			rec.Title,
			rec.URL,
			rec.Strategy,
			rec.Status,
			rec.Records,
			[]byte(`["Single endpoint crawl."]`),
			rec.Error,
			rec.HarvestedAt,
			int64(1500),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, provider.RecordEndpoint(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider, err := NewPostgresProviderWithPool(mock, "harvest_runs", "harvest_endpoints")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"id", "started_at", "finished_at", "endpoints",
		"succeeded", "failed", "skipped", "empty", "knowledge_base_uri",
	}).AddRow("run-1", now, now.Add(time.Minute), 3, 2, 1, 0, 0, "file:///kb.json")

	mock.ExpectQuery("SELECT id, started_at").
		WithArgs("run-1").
		WillReturnRows(rows)

	run, err := provider.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, "run-1", run.ID)
	require.Equal(t, 3, run.Endpoints)
	require.Equal(t, "file:///kb.json", run.KnowledgeBaseURI)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEndpoints(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	provider, err := NewPostgresProviderWithPool(mock, "harvest_runs", "harvest_endpoints")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rows := pgxmock.NewRows([]string{
		"run_id", "slug", "title", "url", "strategy", "status",
		"records", "notes", "error_text", "harvested_at", "duration_ms",
	}).
		AddRow("run-1", "a-catalog", "A", "https://a.example.com", "LinkGraph", "succeeded",
			5, []byte(`["Reached depth limit of 3."]`), "", now, int64(2000)).
		AddRow("run-1", "b-catalog", "B", "https://b.example.com", "Paginated", "failed",
			0, []byte(`null`), "fetch root: status 502", now, int64(100))

	mock.ExpectQuery("SELECT run_id, slug").
		WithArgs("run-1").
		WillReturnRows(rows)

	endpoints, err := provider.ListEndpoints(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	require.Equal(t, "a-catalog", endpoints[0].Slug)
	require.Equal(t, []string{"Reached depth limit of 3."}, endpoints[0].Notes)
	require.Equal(t, 2*time.Second, endpoints[0].Duration)
	require.Equal(t, "fetch root: status 502", endpoints[1].Error)
	require.Empty(t, endpoints[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}
