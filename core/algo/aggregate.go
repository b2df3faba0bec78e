// Package algo reduces per-file measurements into project scores and recommendations.
package algo

import (
	"math"

	"github.com/huangsam/codehealth/core/dup"
	"github.com/huangsam/codehealth/core/metrics"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// Aggregate assembles the analysis result. Metrics must be in discovery order.
// totalFiles counts every discovered file, including the skipped ones.
func Aggregate(fileMetrics []schema.FileMetric, dupRes *dup.Result, totalFiles, skipped int, cfg *contract.Config) *schema.AnalysisResult {
	result := schema.EmptyResult()
	result.Overview.TotalFiles = totalFiles
	result.Overview.SkippedFiles = skipped

	var complexitySum, maintainabilitySum float64
	for _, m := range fileMetrics {
		_, duplicated := dupRes.Files[m.File]
		result.Complexity.Details = append(result.Complexity.Details, schema.ComplexityDetail{
			File:            m.File,
			Complexity:      roundScore(m.Complexity),
			Maintainability: roundScore(m.Maintainability),
		})
		result.Maintainability.Details = append(result.Maintainability.Details, schema.MaintainabilityDetail{
			File:   m.File,
			Score:  roundScore(m.Maintainability),
			Issues: metrics.Issues(m, duplicated, cfg),
		})
		complexitySum += m.Complexity
		maintainabilitySum += m.Maintainability
		result.Overview.TotalLines += m.Lines
	}

	if n := len(fileMetrics); n > 0 {
		result.Complexity.Score = roundScore(complexitySum / float64(n))
		result.Maintainability.Score = roundScore(maintainabilitySum / float64(n))
	}

	result.Duplication = dupRes.Summary
	if result.Duplication.Instances == nil {
		result.Duplication.Instances = []schema.DuplicationInstance{}
	}
	if result.Overview.TotalLines > 0 {
		ratio := float64(dupRes.DuplicatedLines) / float64(result.Overview.TotalLines)
		result.Overview.TechnicalDebtRatio = math.Min(1, ratio)
	}
	return result
}

func roundScore(v float64) int {
	return int(math.Round(v))
}
