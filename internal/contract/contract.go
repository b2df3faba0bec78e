// Package contract provides interfaces and shared utilities for codehealth's internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/codehealth/schema"
)

// StoreManager defines the interface for managing the report and history stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetReportStore() ReportStore
	GetHistoryStore() HistoryStore
}

// ReportStore defines the interface for storing the last report of each project root.
// Values are opaque bytes so the store never needs to know the report encoding.
type ReportStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.ReportStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking analysis runs and their per-file scores.
type HistoryStore interface {
	// BeginRun creates a new run and returns its numeric ID and UUID
	BeginRun(rootPath string, startTime time.Time, configParams map[string]any) (int64, string, error)

	// RecordFileScores stores the final scores of every analyzed file in one batch
	RecordFileScores(runID int64, scores []schema.FileScores) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totals schema.RunTotals) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllFileScores returns every recorded file score ordered by run ID and path
	GetAllFileScores() ([]schema.FileScoresRecord, error)

	// Close closes the underlying connection
	Close() error
}
