package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// WriteMetricsDefinitions displays how every score is computed with the active weights and thresholds.
// This is a static display that does not require analysis.
func WriteMetricsDefinitions(cfg *contract.Config) error {
	model := buildMetricsRenderModel(cfg)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsCSV(w, model)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for metrics definitions")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMetricsText(w, model, cfg)
		}, "Wrote text")
	}
}

// buildMetricsRenderModel constructs the render model from the active config.
func buildMetricsRenderModel(cfg *contract.Config) *schema.MetricsRenderModel {
	return &schema.MetricsRenderModel{
		Title:       "Code Health Scores",
		Description: "Per-file scores are densities over physical lines, project scores are rounded means",
		Metrics: []schema.MetricDefinition{
			{
				Name:      "complexity",
				Purpose:   "Branching density, higher is worse",
				Formula:   "min(100, (1 + branches) / lines * 100)",
				Threshold: cfg.ComplexityThreshold,
				Weight:    cfg.Weights.Complexity,
			},
			{
				Name:      "maintainability",
				Purpose:   "Documentation and decomposition density, higher is better",
				Formula:   "min(100, (comments + functions) / lines * 100)",
				Threshold: cfg.MaintainabilityThreshold,
				Weight:    cfg.Weights.Maintainability,
			},
			{
				Name:      "duplication",
				Purpose:   "Share of lines in fragments repeated across files, higher is worse",
				Formula:   "duplicated lines / total lines * 100",
				Threshold: cfg.DuplicationThreshold,
				Weight:    cfg.Weights.Duplication,
			},
		},
		OverallFormula: fmt.Sprintf("%.2f*complexity + %.2f*maintainability + %.2f*(100 - duplication)",
			cfg.Weights.Complexity, cfg.Weights.Maintainability, cfg.Weights.Duplication),
		HealthBands: schema.HealthBands(),
	}
}

func writeMetricsText(w io.Writer, model *schema.MetricsRenderModel, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "%s%s\n%s\n\n", emoji(cfg, "📐"), model.Title, model.Description); err != nil {
		return err
	}
	for _, m := range model.Metrics {
		if _, err := fmt.Fprintf(w, "%s: %s\n", m.Name, m.Purpose); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Formula: %s\n   Threshold: %.1f | Weight: %.2f\n\n", m.Formula, m.Threshold, m.Weight); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Overall Score = %s\n", model.OverallFormula); err != nil {
		return err
	}
	for _, band := range model.HealthBands {
		if _, err := fmt.Fprintf(w, "   >= %d: %s\n", band.Floor, healthLabel(cfg, band.Label)); err != nil {
			return err
		}
	}
	return nil
}

func writeMetricsCSV(w io.Writer, model *schema.MetricsRenderModel) error {
	header := []string{"metric", "purpose", "formula", "threshold", "weight"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, m := range model.Metrics {
			rec := []string{
				m.Name,
				m.Purpose,
				m.Formula,
				fmt.Sprintf("%.1f", m.Threshold),
				fmt.Sprintf("%.2f", m.Weight),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
