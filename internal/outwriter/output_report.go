package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/internal/parquet"
	"github.com/huangsam/codehealth/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// fragmentPreviewWidth caps the fragment column of the duplication table.
const fragmentPreviewWidth = 48

// fileRow joins the complexity and maintainability details of one file.
type fileRow struct {
	File            string
	Complexity      int
	Maintainability int
	Issues          []string
	Duplicated      bool
}

// WriteReport outputs a report, dispatching based on the output format configured.
// JSON output is the bare analysis result.
func WriteReport(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report.Result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportCSV(w, report)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeReportParquet(report, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportText(w, report, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// fileRows returns one row per analyzed file in path order.
func fileRows(result *schema.AnalysisResult) []fileRow {
	duplicated := map[string]bool{}
	for _, inst := range result.Duplication.Instances {
		for _, f := range inst.Files {
			duplicated[f] = true
		}
	}
	issues := make(map[string][]string, len(result.Maintainability.Details))
	for _, d := range result.Maintainability.Details {
		issues[d.File] = d.Issues
	}

	rows := make([]fileRow, 0, len(result.Complexity.Details))
	for _, d := range result.Complexity.Details {
		rows = append(rows, fileRow{
			File:            d.File,
			Complexity:      d.Complexity,
			Maintainability: d.Maintainability,
			Issues:          issues[d.File],
			Duplicated:      duplicated[d.File],
		})
	}
	return rows
}

// writeReportText generates and writes the human-readable summary and tables.
func writeReportText(w io.Writer, report *schema.Report, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	r := report.Result

	if _, err := fmt.Fprintf(w, "%sOverall Score: %s (%s)\n", emoji(cfg, "🩺"), scoreText(cfg, report.OverallScore), healthLabel(cfg, report.Health)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Complexity: %d | Maintainability: %d | Duplication: %s%%\n",
		r.Complexity.Score, r.Maintainability.Score, fmtFloat(r.Duplication.Percentage)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Files: %d | Lines: %d | Skipped: %d | Technical Debt: %s%%\n\n",
		r.Overview.TotalFiles, r.Overview.TotalLines, r.Overview.SkippedFiles, fmtFloat(r.Overview.TechnicalDebtRatio)); err != nil {
		return err
	}

	if err := writeFileTable(w, fileRows(r), cfg); err != nil {
		return err
	}
	if len(r.Duplication.Instances) > 0 {
		if _, err := fmt.Fprintf(w, "\n%sDuplicated fragments\n", emoji(cfg, "📋")); err != nil {
			return err
		}
		if err := writeDuplicationTable(w, r.Duplication.Instances); err != nil {
			return err
		}
	}

	if err := writeRecommendationsText(w, report.Recommendations, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Report backend: %s\n", duration, cfg.Workers, cfg.ReportBackend)
	return err
}

// writeFileTable renders the per-file table.
func writeFileTable(w io.Writer, rows []fileRow, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "File", "Complexity", "Maintainability", "Issues"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	maxWidth := GetMaxTablePathWidth(cfg)
	var data [][]string
	for i, row := range rows {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(row.File, maxWidth),
			strconv.Itoa(row.Complexity),
			strconv.Itoa(row.Maintainability),
			summarizeIssues(row.Issues),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeDuplicationTable renders one row per duplicated fragment.
func writeDuplicationTable(w io.Writer, instances []schema.DuplicationInstance) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Lines", "Files", "Fragment"})

	var data [][]string
	for i, inst := range instances {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(inst.Lines),
			strings.Join(inst.Files, ", "),
			previewFragment(inst.Fragment),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeRecommendationsText(w io.Writer, recs []string, cfg *contract.Config) error {
	if _, err := fmt.Fprintf(w, "\n%sRecommendations\n", emoji(cfg, "💡")); err != nil {
		return err
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "  None. Keep it up!")
		return err
	}
	for i, rec := range recs {
		if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, rec); err != nil {
			return err
		}
	}
	return nil
}

// writeReportCSV writes one row per analyzed file.
func writeReportCSV(w io.Writer, report *schema.Report) error {
	header := []string{"file", "complexity", "maintainability", "duplicated", "issue_count", "issues"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, row := range fileRows(report.Result) {
			rec := []string{
				row.File,
				strconv.Itoa(row.Complexity),
				strconv.Itoa(row.Maintainability),
				strconv.FormatBool(row.Duplicated),
				strconv.Itoa(len(row.Issues)),
				strings.Join(row.Issues, "; "),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeReportParquet writes one row per analyzed file to outputFile.
func writeReportParquet(report *schema.Report, outputFile string) error {
	if outputFile == "" {
		return fmt.Errorf("parquet output requires an output file")
	}
	rows := fileRows(report.Result)
	details := make([]parquet.FileDetail, len(rows))
	for i, row := range rows {
		details[i] = parquet.FileDetail{
			File:            row.File,
			Complexity:      int32(row.Complexity),
			Maintainability: int32(row.Maintainability),
			Issues:          strings.Join(row.Issues, "; "),
			Duplicated:      row.Duplicated,
		}
	}
	if err := parquet.WriteFileDetailsParquet(details, outputFile); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", outputFile)
	return nil
}

// summarizeIssues shows the first issue and how many follow it.
func summarizeIssues(issues []string) string {
	switch len(issues) {
	case 0:
		return "-"
	case 1:
		return issues[0]
	default:
		return fmt.Sprintf("%s (+%d)", issues[0], len(issues)-1)
	}
}

// previewFragment keeps the first non-empty line of a fragment.
func previewFragment(fragment string) string {
	for line := range strings.SplitSeq(fragment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > fragmentPreviewWidth {
			return string(runes[:fragmentPreviewWidth-3]) + "..."
		}
		return line
	}
	return ""
}
