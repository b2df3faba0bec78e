package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/codehealth/internal/parquet"
)

// ExecuteHistoryExport writes the run history to <outputFile>.runs.parquet
// and <outputFile>.file_scores.parquet.
func ExecuteHistoryExport(outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetHistoryStore()
	if store == nil {
		return errors.New("history store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total file records: %d\n", status.TableSizes[fileScoresTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	scores, err := store.GetAllFileScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve file scores: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetScores := parquet.ConvertFileScoresRecords(scores)
	scoresFile := outputFile + ".file_scores.parquet"
	if err := parquet.WriteFileScoresParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write file scores: %w", err)
	}
	fmt.Printf("Exported %d file score records to: %s\n", len(parquetScores), scoresFile)

	fmt.Println("\nExport complete! The Parquet files can be read by DuckDB, Pandas (via pyarrow), Spark or Arrow.")
	return nil
}
