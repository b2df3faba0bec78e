package iocache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/codehealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryStore(t *testing.T) *HistoryStoreImpl {
	t.Helper()
	store, err := NewHistoryStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*HistoryStoreImpl)
}

func TestHistoryStoreLifecycle(t *testing.T) {
	store := newTestHistoryStore(t)
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	runID, runUUID, err := store.BeginRun("/src/web", start, map[string]any{"workers": 4})
	require.NoError(t, err)
	assert.Equal(t, int64(1), runID)
	_, err = uuid.Parse(runUUID)
	require.NoError(t, err)

	require.NoError(t, store.RecordFileScores(runID, []schema.FileScores{
		{FilePath: "src/b.ts", Lines: 20, Complexity: 10, Maintainability: 80},
		{FilePath: "src/a.ts", Lines: 600, Complexity: 70, Maintainability: 30, IssueCount: 2, FirstIssue: "large file (600 lines)"},
	}))

	totals := schema.RunTotals{
		TotalFiles: 2, TotalLines: 620, Complexity: 40, Maintainability: 55,
		Duplication: 3.5, OverallScore: 61, Health: schema.HealthFair,
	}
	require.NoError(t, store.EndRun(runID, start.Add(2*time.Second), totals))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runUUID, run.RunUUID)
	assert.Equal(t, "/src/web", run.RootPath)
	assert.True(t, start.Equal(run.StartTime))
	require.NotNil(t, run.EndTime)
	assert.True(t, start.Add(2*time.Second).Equal(*run.EndTime))
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int32(2000), *run.RunDurationMs)
	assert.Equal(t, int32(620), run.TotalLines)
	assert.Equal(t, int32(61), run.OverallScore)
	assert.InDelta(t, 3.5, run.Duplication, 1e-9)
	require.NotNil(t, run.Health)
	assert.Equal(t, "Fair", *run.Health)
	require.NotNil(t, run.ConfigParams)
	assert.JSONEq(t, `{"workers":4}`, *run.ConfigParams)

	scores, err := store.GetAllFileScores()
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "src/a.ts", scores[0].FilePath)
	require.NotNil(t, scores[0].FirstIssue)
	assert.Equal(t, "large file (600 lines)", *scores[0].FirstIssue)
	assert.Equal(t, int32(600), scores[0].Lines)
	assert.Nil(t, scores[1].FirstIssue)
	assert.False(t, scores[1].AnalysisTime.IsZero())

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 2, status.TotalFilesAnalyzed)
	assert.Equal(t, int64(1), status.TableSizes[runsTable])
	assert.Equal(t, int64(2), status.TableSizes[fileScoresTable])
}

func TestHistoryStoreUnfinishedRun(t *testing.T) {
	store := newTestHistoryStore(t)
	_, _, err := store.BeginRun("/a", time.Now(), nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].RunDurationMs)
	assert.Nil(t, runs[0].Health)
}

func TestHistoryStoreEndUnknownRun(t *testing.T) {
	store := newTestHistoryStore(t)
	assert.Error(t, store.EndRun(42, time.Now(), schema.RunTotals{}))
}

func TestHistoryStoreDuplicateFileRow(t *testing.T) {
	store := newTestHistoryStore(t)
	runID, _, err := store.BeginRun("/a", time.Now(), nil)
	require.NoError(t, err)

	rows := []schema.FileScores{{FilePath: "x.js"}, {FilePath: "x.js"}}
	require.Error(t, store.RecordFileScores(runID, rows))

	scores, err := store.GetAllFileScores()
	require.NoError(t, err)
	assert.Empty(t, scores, "the batch is rolled back")
}

func TestHistoryStoreNoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, runUUID, err := store.BeginRun("/a", time.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.Empty(t, runUUID)
	assert.NoError(t, store.RecordFileScores(runID, []schema.FileScores{{FilePath: "a"}}))
	assert.NoError(t, store.EndRun(runID, time.Now(), schema.RunTotals{}))

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Nil(t, runs)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestCreateHistoryQueries(t *testing.T) {
	assert.Contains(t, getCreateRunsQuery(schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateRunsQuery(schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateRunsQuery(schema.SQLiteBackend), "AUTOINCREMENT")
	for _, backend := range []schema.DatabaseBackend{schema.MySQLBackend, schema.PostgreSQLBackend, schema.SQLiteBackend} {
		assert.Contains(t, getCreateFileScoresQuery(backend), "PRIMARY KEY (run_id, file_path)")
	}
}
