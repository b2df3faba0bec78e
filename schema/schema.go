// Package schema has models and constants shared by all parts of codehealth.
package schema

import "time"

// AnalysisResult is the sole artifact of one analysis run.
// The JSON field names are a stable wire contract.
type AnalysisResult struct {
	Complexity      ComplexitySummary      `json:"complexity"`
	Duplication     DuplicationSummary     `json:"duplication"`
	Maintainability MaintainabilitySummary `json:"maintainability"`
	Overview        Overview               `json:"overview"`
}

// ComplexitySummary holds the project complexity score and per-file details.
type ComplexitySummary struct {
	Score   int                `json:"score"`
	Details []ComplexityDetail `json:"details"`
}

// ComplexityDetail is the per-file entry of the complexity summary.
type ComplexityDetail struct {
	File            string `json:"file"`
	Complexity      int    `json:"complexity"`
	Maintainability int    `json:"maintainability"`
}

// DuplicationSummary holds the duplicated share of the project and its instances.
type DuplicationSummary struct {
	Percentage float64               `json:"percentage"`
	Instances  []DuplicationInstance `json:"instances"`
}

// DuplicationInstance is one fragment that recurs in two or more files.
type DuplicationInstance struct {
	Files    []string `json:"files"`
	Lines    int      `json:"lines"`
	Fragment string   `json:"fragment"`
}

// MaintainabilitySummary holds the project maintainability score and per-file details.
type MaintainabilitySummary struct {
	Score   int                     `json:"score"`
	Details []MaintainabilityDetail `json:"details"`
}

// MaintainabilityDetail is the per-file entry of the maintainability summary.
type MaintainabilityDetail struct {
	File   string   `json:"file"`
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
}

// Overview holds project totals.
type Overview struct {
	TotalFiles         int     `json:"totalFiles"`
	TotalLines         int     `json:"totalLines"`
	TechnicalDebtRatio float64 `json:"technicalDebtRatio"`
	SkippedFiles       int     `json:"skippedFiles,omitempty"` // unreadable or undecodable files
}

// FileMetric is the raw, unrounded measurement of one analyzed file.
type FileMetric struct {
	File            string
	Lines           int
	Branches        int
	Comments        int
	Functions       int
	Complexity      float64 // 0-100
	Maintainability float64 // 0-100
}

// Report wraps an AnalysisResult with the derived verdict for presentation and storage.
type Report struct {
	RunID           string          `json:"runId,omitempty"`
	Root            string          `json:"root"`
	GeneratedAt     time.Time       `json:"generatedAt"`
	DurationMs      int64           `json:"durationMs"`
	OverallScore    int             `json:"overallScore"`
	Health          HealthLabel     `json:"health"`
	Recommendations []string        `json:"recommendations"`
	Result          *AnalysisResult `json:"result"`
}

// Verdict is the compact summary returned by the recommend command and MCP tool.
type Verdict struct {
	Root            string      `json:"root"`
	OverallScore    int         `json:"overallScore"`
	Health          HealthLabel `json:"health"`
	Recommendations []string    `json:"recommendations"`
}

// NewVerdict extracts the verdict from a report.
func NewVerdict(r *Report) Verdict {
	return Verdict{
		Root:            r.Root,
		OverallScore:    r.OverallScore,
		Health:          r.Health,
		Recommendations: r.Recommendations,
	}
}

// EmptyResult returns a result with non-nil slices so it encodes as [] rather than null.
func EmptyResult() *AnalysisResult {
	return &AnalysisResult{
		Complexity:      ComplexitySummary{Details: []ComplexityDetail{}},
		Duplication:     DuplicationSummary{Instances: []DuplicationInstance{}},
		Maintainability: MaintainabilitySummary{Details: []MaintainabilityDetail{}},
	}
}
