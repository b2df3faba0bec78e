// Package core runs codehealth analyses and turns them into reports.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/codehealth/core/algo"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/internal/iocache"
	"github.com/huangsam/codehealth/internal/outwriter"
	"github.com/huangsam/codehealth/schema"
)

// ExecutorFunc defines the function signature for executing the CLI commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// FailUnderError is returned when the overall score is below --fail-under.
type FailUnderError struct {
	Score     int
	Threshold int
}

func (e *FailUnderError) Error() string {
	return fmt.Sprintf("overall score %d is below the required %d", e.Score, e.Threshold)
}

// ExecuteAnalyze runs the analysis, writes the full report and enforces --fail-under.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	report, duration, err := GetReport(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.WriteReport(report, cfg, duration); err != nil {
		return err
	}
	return checkFailUnder(report, cfg)
}

// ExecuteRecommend runs the analysis and writes only the verdict.
func ExecuteRecommend(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	report, duration, err := GetReport(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.WriteVerdict(schema.NewVerdict(report), cfg, duration); err != nil {
		return err
	}
	return checkFailUnder(report, cfg)
}

// ExecuteMetrics writes the metric definitions for the configured thresholds and weights.
func ExecuteMetrics(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	return outwriter.WriteMetricsDefinitions(cfg)
}

// ExecuteReportShow writes the last stored report of the root without analyzing again.
func ExecuteReportShow(_ context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	store := reportStore(mgr)
	if store == nil {
		return fmt.Errorf("report store is not configured (use --report-backend)")
	}
	report, err := iocache.LoadReport(store, cfg.RootPath)
	if err != nil {
		return err
	}
	return outwriter.WriteReport(report, cfg, time.Duration(report.DurationMs)*time.Millisecond)
}

// GetReport analyzes cfg.RootPath and derives the report.
// The run is recorded to the history store and the report saved to the report
// store when they are configured. Store failures only produce warnings.
func GetReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.Report, time.Duration, error) {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		outwriter.LogAnalysisHeader(cfg)
	}

	history := historyStore(mgr)
	var runID int64
	var runUUID string
	if history != nil {
		id, u, err := history.BeginRun(cfg.RootPath, start, configParams(cfg))
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
			history = nil
		} else {
			runID, runUUID = id, u
		}
	}

	run, err := AnalyzeRun(ctx, cfg.RootPath, cfg)
	if err != nil {
		if history != nil {
			// An aborted run ends with empty totals
			if endErr := history.EndRun(runID, time.Now(), schema.RunTotals{}); endErr != nil {
				contract.LogWarn("Run tracking completion failed", endErr)
			}
		}
		return nil, 0, err
	}
	for _, w := range run.Warnings {
		contract.LogWarn("Skipped", w)
	}

	if runUUID == "" {
		runUUID = uuid.NewString()
	}
	report := NewReport(run.Result, cfg, runUUID, start)
	report.DurationMs = time.Since(start).Milliseconds()

	if history != nil {
		if err := history.RecordFileScores(runID, FileScores(run)); err != nil {
			contract.LogWarn("Recording file scores failed", err)
		}
		if err := history.EndRun(runID, time.Now(), RunTotals(report)); err != nil {
			contract.LogWarn("Run tracking completion failed", err)
		}
	}
	if store := reportStore(mgr); store != nil {
		if err := iocache.SaveReport(store, report); err != nil {
			contract.LogWarn("Saving report failed", err)
		}
	}

	return report, time.Since(start), nil
}

// NewReport wraps a result with its overall score, health label and recommendations.
func NewReport(result *schema.AnalysisResult, cfg *contract.Config, runID string, generatedAt time.Time) *schema.Report {
	score, health := algo.Verdict(result, cfg)
	return &schema.Report{
		RunID:           runID,
		Root:            cfg.RootPath,
		GeneratedAt:     generatedAt.UTC(),
		OverallScore:    score,
		Health:          health,
		Recommendations: algo.Recommendations(result, cfg),
		Result:          result,
	}
}

// FileScores builds the per-file history rows of a run in path order.
func FileScores(run *Run) []schema.FileScores {
	issues := make(map[string][]string, len(run.Result.Maintainability.Details))
	for _, d := range run.Result.Maintainability.Details {
		issues[d.File] = d.Issues
	}
	rounded := make(map[string]schema.ComplexityDetail, len(run.Result.Complexity.Details))
	for _, d := range run.Result.Complexity.Details {
		rounded[d.File] = d
	}

	scores := make([]schema.FileScores, 0, len(run.Files))
	for _, f := range run.Files {
		row := schema.FileScores{
			FilePath:        f.File,
			Lines:           f.Lines,
			Complexity:      rounded[f.File].Complexity,
			Maintainability: rounded[f.File].Maintainability,
			IssueCount:      len(issues[f.File]),
		}
		if row.IssueCount > 0 {
			row.FirstIssue = issues[f.File][0]
		}
		scores = append(scores, row)
	}
	return scores
}

// RunTotals extracts the project totals recorded when a run ends.
func RunTotals(report *schema.Report) schema.RunTotals {
	r := report.Result
	return schema.RunTotals{
		TotalFiles:      r.Overview.TotalFiles,
		TotalLines:      r.Overview.TotalLines,
		SkippedFiles:    r.Overview.SkippedFiles,
		Complexity:      r.Complexity.Score,
		Maintainability: r.Maintainability.Score,
		Duplication:     r.Duplication.Percentage,
		OverallScore:    report.OverallScore,
		Health:          report.Health,
	}
}

// configParams is the subset of the config stored with each run.
func configParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"extensions":         cfg.Extensions,
		"excludes":           cfg.Excludes,
		"workers":            cfg.Workers,
		"timeout":            cfg.Timeout.String(),
		"min_fragment_lines": cfg.MinFragmentLines,
		"large_file_lines":   cfg.LargeFileLines,
		"weights": map[string]float64{
			"complexity":      cfg.Weights.Complexity,
			"maintainability": cfg.Weights.Maintainability,
			"duplication":     cfg.Weights.Duplication,
		},
		"thresholds": map[string]float64{
			"complexity":      cfg.ComplexityThreshold,
			"maintainability": cfg.MaintainabilityThreshold,
			"duplication":     cfg.DuplicationThreshold,
		},
	}
}

func checkFailUnder(report *schema.Report, cfg *contract.Config) error {
	if cfg.FailUnder > 0 && report.OverallScore < cfg.FailUnder {
		return &FailUnderError{Score: report.OverallScore, Threshold: cfg.FailUnder}
	}
	return nil
}

func reportStore(mgr contract.StoreManager) contract.ReportStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetReportStore()
}

func historyStore(mgr contract.StoreManager) contract.HistoryStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetHistoryStore()
}
