// Package parquet provides data structures and functions for exporting codehealth
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/codehealth/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single analysis run with its project totals.
// This struct maps to the codehealth_runs database table.
type Run struct {
	// RunID is the numeric identifier of this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID is the globally unique identifier of this run
	RunUUID string `parquet:"run_uuid,snappy"`

	// RootPath is the analyzed project root
	RootPath string `parquet:"root_path,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	TotalFiles      int32   `parquet:"total_files,snappy"`
	TotalLines      int32   `parquet:"total_lines,snappy"`
	SkippedFiles    int32   `parquet:"skipped_files,snappy"`
	Complexity      int32   `parquet:"complexity,snappy"`
	Maintainability int32   `parquet:"maintainability,snappy"`
	Duplication     float64 `parquet:"duplication,snappy"`
	OverallScore    int32   `parquet:"overall_score,snappy"`

	// Health is the label of the overall score (nullable until the run ends)
	Health *string `parquet:"health,optional,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FileScore represents the recorded scores of one file in a run.
// This struct maps to the codehealth_file_scores database table.
type FileScore struct {
	RunID           int64     `parquet:"run_id,snappy"`
	FilePath        string    `parquet:"file_path,snappy"`
	AnalysisTime    time.Time `parquet:"analysis_time,snappy"`
	Lines           int32     `parquet:"lines,snappy"`
	Complexity      int32     `parquet:"complexity,snappy"`
	Maintainability int32     `parquet:"maintainability,snappy"`
	IssueCount      int32     `parquet:"issue_count,snappy"`
	FirstIssue      *string   `parquet:"first_issue,optional,snappy"`
}

// FileDetail is one file row of a single analysis result, written by --output parquet.
type FileDetail struct {
	File            string `parquet:"file,snappy"`
	Complexity      int32  `parquet:"complexity,snappy"`
	Maintainability int32  `parquet:"maintainability,snappy"`
	Issues          string `parquet:"issues,snappy"` // joined with "; "
	Duplicated      bool   `parquet:"duplicated,snappy"`
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileScoresParquet writes file scores to a Parquet file.
func WriteFileScoresParquet(data []FileScore, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileDetailsParquet writes the per-file rows of one result to a Parquet file.
func WriteFileDetailsParquet(data []FileDetail, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet creates outputPath and writes every row with a schema inferred from T's tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, r := range records {
		result[i] = Run{
			RunID:           r.RunID,
			RunUUID:         r.RunUUID,
			RootPath:        r.RootPath,
			StartTime:       r.StartTime,
			EndTime:         r.EndTime,
			RunDurationMs:   r.RunDurationMs,
			TotalFiles:      r.TotalFiles,
			TotalLines:      r.TotalLines,
			SkippedFiles:    r.SkippedFiles,
			Complexity:      r.Complexity,
			Maintainability: r.Maintainability,
			Duplication:     r.Duplication,
			OverallScore:    r.OverallScore,
			Health:          r.Health,
			ConfigParams:    r.ConfigParams,
		}
	}
	return result
}

// ConvertFileScoresRecords converts schema.FileScoresRecord to FileScore for Parquet export.
func ConvertFileScoresRecords(records []schema.FileScoresRecord) []FileScore {
	result := make([]FileScore, len(records))
	for i, r := range records {
		result[i] = FileScore{
			RunID:           r.RunID,
			FilePath:        r.FilePath,
			AnalysisTime:    r.AnalysisTime,
			Lines:           r.Lines,
			Complexity:      r.Complexity,
			Maintainability: r.Maintainability,
			IssueCount:      r.IssueCount,
			FirstIssue:      r.FirstIssue,
		}
	}
	return result
}
