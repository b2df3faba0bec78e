// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// LogAnalysisHeader prints a concise, 2-line header before an analysis.
// It goes to stderr when stdout carries machine-readable output.
func LogAnalysisHeader(cfg *contract.Config) {
	logAnalysisHeader(headerWriter(cfg), cfg)
}

func logAnalysisHeader(w io.Writer, cfg *contract.Config) {
	rootName := filepath.Base(cfg.RootPath)
	if rootName == "" || rootName == "." {
		rootName = "current"
	}

	// Line 1: what is analyzed
	_, _ = fmt.Fprintf(w, "%sRoot: %s (Workers: %d)\n", emoji(cfg, "🔎"), rootName, cfg.Workers)

	// Line 2: which files qualify
	excludes := "none"
	if len(cfg.Excludes) > 0 {
		excludes = strings.Join(cfg.Excludes, ", ")
	}
	_, _ = fmt.Fprintf(w, "%sFiles: %s (Excludes: %s)\n", emoji(cfg, "📂"), strings.Join(cfg.Extensions, ", "), excludes)
}

func headerWriter(cfg *contract.Config) io.Writer {
	if cfg.Output == schema.TextOut || cfg.OutputFile != "" {
		return os.Stdout
	}
	return os.Stderr
}

// emoji returns the symbol followed by a space when emojis are enabled.
func emoji(cfg *contract.Config, symbol string) string {
	if !cfg.UseEmojis {
		return ""
	}
	return symbol + " "
}

// healthLabel renders a label, colored when colors are enabled.
func healthLabel(cfg *contract.Config, label schema.HealthLabel) string {
	if cfg.UseColors {
		return contract.GetColorLabel(label)
	}
	return string(label)
}

// scoreText renders a score, colored by its health band when colors are enabled.
func scoreText(cfg *contract.Config, score int) string {
	text := fmt.Sprintf("%d", score)
	if cfg.UseColors {
		return contract.GetScoreColor(score, text)
	}
	return text
}
