package cmd

import (
	"github.com/huangsam/codehealth/core"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd runs the full analysis.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Score complexity, maintainability and duplication of a source tree",
	Long: `Analyze every JavaScript and TypeScript file under the path (default: current directory).

Reports:
- Project complexity and maintainability scores (0-100)
- Duplicated code shared between files
- Per-file scores and issues
- Overall score, health label and recommendations

Output formats: text (default), csv (per-file rows), json (the analysis result) and
parquet (per-file rows, requires --output-file).

Use --fail-under in CI to exit non-zero when the overall score is too low.

Examples:
  # Analyze the current directory
  codehealth analyze

  # Only TypeScript, skip generated code
  codehealth analyze ./web --extensions .ts,.tsx --exclude "dist/,**/*.gen.ts"

  # Gate a pull request
  codehealth analyze --fail-under 70 --output json --output-file health.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Analysis failed", err)
		}
	},
}

// recommendCmd prints only the verdict of an analysis.
var recommendCmd = &cobra.Command{
	Use:   "recommend [path]",
	Short: "Print the overall score, health label and what to fix first",
	Long: `Analyze the path and print only the overall score, the health label and
the prioritized recommendations.

Examples:
  codehealth recommend
  codehealth recommend ./web --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRecommend(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Recommendation failed", err)
		}
	},
}

// metricsCmd displays the formal definitions of all metrics.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the formulas, thresholds and weights behind every score",
	Long: `Show the formal definitions of complexity, maintainability and duplication,
the overall score formula with the configured weights and the health bands.

No analysis is performed - this is purely informational.

Examples:
  codehealth metrics
  codehealth metrics --config .codehealth.yaml --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
