package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// WriteVerdict outputs the overall score, health label and recommendations.
func WriteVerdict(verdict schema.Verdict, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, verdict)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVerdictCSV(w, verdict)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for recommendations")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVerdictText(w, verdict, cfg, duration)
		}, "Wrote text")
	}
}

func writeVerdictText(w io.Writer, verdict schema.Verdict, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "%sOverall Score: %s (%s)\n", emoji(cfg, "🩺"), scoreText(cfg, verdict.OverallScore), healthLabel(cfg, verdict.Health)); err != nil {
		return err
	}
	if err := writeRecommendationsText(w, verdict.Recommendations, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers.\n", duration, cfg.Workers)
	return err
}

// writeVerdictCSV writes one row per recommendation, repeating the score on each row.
func writeVerdictCSV(w io.Writer, verdict schema.Verdict) error {
	header := []string{"overall_score", "health", "rank", "recommendation"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		score := strconv.Itoa(verdict.OverallScore)
		for i, rec := range verdict.Recommendations {
			if err := cw.Write([]string{score, string(verdict.Health), strconv.Itoa(i + 1), rec}); err != nil {
				return err
			}
		}
		return nil
	})
}
