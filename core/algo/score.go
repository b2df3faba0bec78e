package algo

import (
	"math"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// OverallScore combines the three project scores with the configured weights.
// Duplication contributes inverted, so less duplication scores higher.
func OverallScore(result *schema.AnalysisResult, w contract.Weights) int {
	score := float64(result.Complexity.Score)*w.Complexity +
		float64(result.Maintainability.Score)*w.Maintainability +
		(100-result.Duplication.Percentage)*w.Duplication
	return int(math.Max(0, math.Min(100, math.Round(score))))
}

// Verdict scores the result and maps the score to its health label.
func Verdict(result *schema.AnalysisResult, cfg *contract.Config) (int, schema.HealthLabel) {
	score := OverallScore(result, cfg.Weights)
	return score, schema.GetHealthLabel(score)
}
