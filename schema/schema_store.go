package schema

import "time"

// RunTotals are the project-level numbers recorded when a run completes.
type RunTotals struct {
	TotalFiles      int
	TotalLines      int
	SkippedFiles    int
	Complexity      int
	Maintainability int
	Duplication     float64
	OverallScore    int
	Health          HealthLabel
}

// FileScores is one per-file row recorded for a run.
type FileScores struct {
	FilePath        string
	Lines           int
	Complexity      int
	Maintainability int
	IssueCount      int
	FirstIssue      string
}

// RunRecord represents a row from the codehealth_runs table.
type RunRecord struct {
	RunID           int64
	RunUUID         string
	RootPath        string
	StartTime       time.Time
	EndTime         *time.Time
	RunDurationMs   *int32
	TotalFiles      int32
	TotalLines      int32
	SkippedFiles    int32
	Complexity      int32
	Maintainability int32
	Duplication     float64
	OverallScore    int32
	Health          *string
	ConfigParams    *string
}

// FileScoresRecord represents a row from the codehealth_file_scores table.
type FileScoresRecord struct {
	RunID           int64
	FilePath        string
	AnalysisTime    time.Time
	Lines           int32
	Complexity      int32
	Maintainability int32
	IssueCount      int32
	FirstIssue      *string
}
