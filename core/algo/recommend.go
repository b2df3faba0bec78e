package algo

import (
	"fmt"
	"sort"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// Project-level recommendations in the order they are emitted.
const (
	RecommendDecompose = "Reduce complexity by decomposing complex functions into smaller, focused units"
	RecommendDocument  = "Improve maintainability by documenting modules and simplifying their structure"
	RecommendExtract   = "Reduce duplication by extracting shared logic into reusable utilities"
)

// Recommendations derives ordered guidance from a result. It never returns nil.
func Recommendations(result *schema.AnalysisResult, cfg *contract.Config) []string {
	recs := []string{}
	if float64(result.Complexity.Score) > cfg.ComplexityThreshold {
		recs = append(recs, RecommendDecompose)
	}
	if float64(result.Maintainability.Score) < cfg.MaintainabilityThreshold {
		recs = append(recs, RecommendDocument)
	}
	if result.Duplication.Percentage > cfg.DuplicationThreshold {
		recs = append(recs, RecommendExtract)
	}
	for _, d := range RankFilesWithIssues(result.Maintainability.Details, cfg.TopFiles) {
		recs = append(recs, fmt.Sprintf("%s: %s", d.File, d.Issues[0]))
	}
	return recs
}

// RankFilesWithIssues keeps the files with at least one issue, sorts them by
// maintainability ascending then path, and returns the top 'limit' files.
// The input slice is not modified.
func RankFilesWithIssues(details []schema.MaintainabilityDetail, limit int) []schema.MaintainabilityDetail {
	var ranked []schema.MaintainabilityDetail
	for _, d := range details {
		if len(d.Issues) > 0 {
			ranked = append(ranked, d)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score < ranked[j].Score
		}
		return ranked[i].File < ranked[j].File
	})
	if len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
