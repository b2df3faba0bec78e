// Package metrics computes the per-file complexity and maintainability scores.
package metrics

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/huangsam/codehealth/core/syntax"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// Issue messages in the order they are evaluated.
const (
	IssueHighComplexity     = "high branching density (%d%%)"
	IssueLowMaintainability = "low documentation and decomposition density (%d%%)"
	IssueLargeFile          = "large file (%d lines)"
	IssueDuplicatedCode     = "duplicated code shared with other files"
)

const (
	maxScore       = 100.0
	baseComplexity = 1 // a file with no branches still has one path
	nulByte        = byte(0)
)

// Extraction is the derived data kept for one file once its text is dropped.
type Extraction struct {
	Metric schema.FileMetric
	Bodies []syntax.Body
}

// Extract measures one file. The parser belongs to the calling goroutine.
// Content that is not valid text yields a *contract.DecodeError.
func Extract(ctx context.Context, parser *syntax.Parser, rel string, content []byte) (*Extraction, error) {
	if err := CheckText(rel, content); err != nil {
		return nil, err
	}

	metric := schema.FileMetric{File: rel, Lines: CountLines(content)}
	if metric.Lines == 0 {
		return &Extraction{Metric: metric}, nil
	}

	summary, err := parser.Parse(ctx, syntax.LanguageFor(rel), content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
	}

	metric.Branches = summary.Branches
	metric.Comments = summary.Comments
	metric.Functions = summary.Functions
	metric.Complexity = ComplexityScore(summary.Branches, metric.Lines)
	metric.Maintainability = MaintainabilityScore(summary.Comments, summary.Functions, metric.Lines)
	return &Extraction{Metric: metric, Bodies: summary.Bodies}, nil
}

// CheckText rejects content that is not valid UTF-8 or that contains a NUL byte.
func CheckText(rel string, content []byte) error {
	if bytes.IndexByte(content, nulByte) >= 0 {
		return &contract.DecodeError{Path: rel, Reason: "contains NUL byte"}
	}
	if !utf8.Valid(content) {
		return &contract.DecodeError{Path: rel, Reason: "invalid UTF-8"}
	}
	return nil
}

// CountLines counts newlines, plus one for a final line without a trailing newline.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	lines := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		lines++
	}
	return lines
}

// ComplexityScore is the branch density, (1 + branches) per line, as a percentage capped at 100.
func ComplexityScore(branches, lines int) float64 {
	if lines <= 0 {
		return 0
	}
	return math.Min(maxScore, float64(baseComplexity+branches)/float64(lines)*100)
}

// MaintainabilityScore is the density of comments and functions per line, as a percentage capped at 100.
func MaintainabilityScore(comments, functions, lines int) float64 {
	if lines <= 0 {
		return 0
	}
	return math.Min(maxScore, float64(comments+functions)/float64(lines)*100)
}

// Issues lists the problems of one file in a fixed order.
func Issues(m schema.FileMetric, duplicated bool, cfg *contract.Config) []string {
	issues := []string{}
	if m.Complexity > cfg.ComplexityThreshold {
		issues = append(issues, fmt.Sprintf(IssueHighComplexity, int(math.Round(m.Complexity))))
	}
	if m.Maintainability < cfg.MaintainabilityThreshold {
		issues = append(issues, fmt.Sprintf(IssueLowMaintainability, int(math.Round(m.Maintainability))))
	}
	if m.Lines > cfg.LargeFileLines {
		issues = append(issues, fmt.Sprintf(IssueLargeFile, m.Lines))
	}
	if duplicated {
		issues = append(issues, IssueDuplicatedCode)
	}
	return issues
}
