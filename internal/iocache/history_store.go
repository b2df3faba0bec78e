package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// Table names for run history.
const (
	runsTable       = "codehealth_runs"
	fileScoresTable = "codehealth_file_scores"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	for _, table := range []struct{ name, query string }{
		{runsTable, getCreateRunsQuery(backend)},
		{fileScoresTable, getCreateFileScoresQuery(backend)},
	} {
		if _, err := db.Exec(table.query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// getCreateRunsQuery returns the CREATE TABLE query for codehealth_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL UNIQUE,
				root_path VARCHAR(1024) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_files INT NOT NULL DEFAULT 0,
				total_lines INT NOT NULL DEFAULT 0,
				skipped_files INT NOT NULL DEFAULT 0,
				complexity INT NOT NULL DEFAULT 0,
				maintainability INT NOT NULL DEFAULT 0,
				duplication DOUBLE NOT NULL DEFAULT 0,
				overall_score INT NOT NULL DEFAULT 0,
				health VARCHAR(32),
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL UNIQUE,
				root_path TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_files INT NOT NULL DEFAULT 0,
				total_lines INT NOT NULL DEFAULT 0,
				skipped_files INT NOT NULL DEFAULT 0,
				complexity INT NOT NULL DEFAULT 0,
				maintainability INT NOT NULL DEFAULT 0,
				duplication DOUBLE PRECISION NOT NULL DEFAULT 0,
				overall_score INT NOT NULL DEFAULT 0,
				health TEXT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL UNIQUE,
				root_path TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_files INTEGER NOT NULL DEFAULT 0,
				total_lines INTEGER NOT NULL DEFAULT 0,
				skipped_files INTEGER NOT NULL DEFAULT 0,
				complexity INTEGER NOT NULL DEFAULT 0,
				maintainability INTEGER NOT NULL DEFAULT 0,
				duplication REAL NOT NULL DEFAULT 0,
				overall_score INTEGER NOT NULL DEFAULT 0,
				health TEXT,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateFileScoresQuery returns the CREATE TABLE query for codehealth_file_scores.
func getCreateFileScoresQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(fileScoresTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path VARCHAR(512) NOT NULL,
				analysis_time DATETIME(6) NOT NULL,
				line_count INT NOT NULL,
				complexity INT NOT NULL,
				maintainability INT NOT NULL,
				issue_count INT NOT NULL,
				first_issue TEXT,
				PRIMARY KEY (run_id, file_path)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				file_path TEXT NOT NULL,
				analysis_time TIMESTAMPTZ NOT NULL,
				line_count INT NOT NULL,
				complexity INT NOT NULL,
				maintainability INT NOT NULL,
				issue_count INT NOT NULL,
				first_issue TEXT,
				PRIMARY KEY (run_id, file_path)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				file_path TEXT NOT NULL,
				analysis_time TEXT NOT NULL,
				line_count INTEGER NOT NULL,
				complexity INTEGER NOT NULL,
				maintainability INTEGER NOT NULL,
				issue_count INTEGER NOT NULL,
				first_issue TEXT,
				PRIMARY KEY (run_id, file_path)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new run row and returns its numeric ID and UUID.
func (hs *HistoryStoreImpl) BeginRun(rootPath string, startTime time.Time, configParams map[string]any) (int64, string, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return 0, "", nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	runUUID := uuid.NewString()
	quotedTableName := quoteTableName(runsTable, hs.backend)
	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, root_path, start_time, config_params) VALUES (%s)`,
		quotedTableName, placeholders(hs.backend, 4))
	args := []any{runUUID, rootPath, formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		err = hs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	} else {
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, "", fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, runUUID, nil
}

// RecordFileScores stores the per-file rows of a run in one transaction.
func (hs *HistoryStoreImpl) RecordFileScores(runID int64, scores []schema.FileScores) error {
	if hs.backend == schema.NoneBackend || hs.db == nil || len(scores) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, file_path, analysis_time, line_count, complexity, maintainability, issue_count, first_issue)
		VALUES (%s)`, quoteTableName(fileScoresTable, hs.backend), placeholders(hs.backend, 8))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare file scores insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	analysisTime := formatTime(time.Now(), hs.backend)
	for _, s := range scores {
		var firstIssue any
		if s.FirstIssue != "" {
			firstIssue = s.FirstIssue
		}
		if _, err := stmt.Exec(runID, s.FilePath, analysisTime, s.Lines, s.Complexity, s.Maintainability, s.IssueCount, firstIssue); err != nil {
			return fmt.Errorf("failed to insert file scores for %s: %w", s.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file scores: %w", err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, totals schema.RunTotals) error {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	start := timeScanner{backend: hs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholders(hs.backend, 1))
	if err := hs.db.QueryRow(query, runID).Scan(start.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := start.value()
	if err != nil {
		return err
	}
	if startTime == nil {
		return fmt.Errorf("run %d has no start_time", runID)
	}
	durationMs := endTime.Sub(*startTime).Milliseconds()

	var updateQuery string
	if hs.backend == schema.PostgreSQLBackend {
		updateQuery = `UPDATE %s SET end_time = $1, run_duration_ms = $2, total_files = $3, total_lines = $4, skipped_files = $5,
			complexity = $6, maintainability = $7, duplication = $8, overall_score = $9, health = $10 WHERE run_id = $11`
	} else {
		updateQuery = `UPDATE %s SET end_time = ?, run_duration_ms = ?, total_files = ?, total_lines = ?, skipped_files = ?,
			complexity = ?, maintainability = ?, duplication = ?, overall_score = ?, health = ? WHERE run_id = ?`
	}
	_, err = hs.db.Exec(fmt.Sprintf(updateQuery, quotedTableName),
		formatTime(endTime, hs.backend), durationMs, totals.TotalFiles, totals.TotalLines, totals.SkippedFiles,
		totals.Complexity, totals.Maintainability, totals.Duplication, totals.OverallScore, string(totals.Health), runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		last := timeScanner{backend: hs.backend}
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastTime, err := last.value()
		if err != nil {
			return status, err
		}
		if lastTime != nil {
			status.LastRunTime = *lastTime
		}

		oldest := timeScanner{backend: hs.backend}
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)
		if err := hs.db.QueryRow(oldestQuery).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestTime, err := oldest.value()
		if err != nil {
			return status, err
		}
		if oldestTime != nil {
			status.OldestRunTime = *oldestTime
		}

		filesQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_files), 0) FROM %s", quotedRuns)
		if err := hs.db.QueryRow(filesQuery).Scan(&status.TotalFilesAnalyzed); err != nil {
			return status, fmt.Errorf("failed to get total files analyzed: %w", err)
		}
	}

	for _, table := range []string{runsTable, fileScoresTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))
		if err := hs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, root_path, start_time, end_time, run_duration_ms,
		total_files, total_lines, skipped_files, complexity, maintainability, duplication, overall_score,
		health, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		start := timeScanner{backend: hs.backend}
		end := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.RootPath, start.dest(), end.dest(), &record.RunDurationMs,
			&record.TotalFiles, &record.TotalLines, &record.SkippedFiles, &record.Complexity, &record.Maintainability,
			&record.Duplication, &record.OverallScore, &record.Health, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllFileScores retrieves all per-file rows ordered by run and path.
func (hs *HistoryStoreImpl) GetAllFileScores() ([]schema.FileScoresRecord, error) {
	if hs.backend == schema.NoneBackend || hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, file_path, analysis_time, line_count, complexity, maintainability, issue_count, first_issue
		FROM %s ORDER BY run_id, file_path`, quoteTableName(fileScoresTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FileScoresRecord
	for rows.Next() {
		var record schema.FileScoresRecord
		at := timeScanner{backend: hs.backend}
		if err := rows.Scan(&record.RunID, &record.FilePath, at.dest(), &record.Lines, &record.Complexity,
			&record.Maintainability, &record.IssueCount, &record.FirstIssue); err != nil {
			return nil, fmt.Errorf("failed to scan file scores: %w", err)
		}
		analysisTime, err := at.value()
		if err != nil {
			return nil, err
		}
		if analysisTime != nil {
			record.AnalysisTime = *analysisTime
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file scores: %w", err)
	}
	return results, nil
}
