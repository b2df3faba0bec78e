package iocache

import (
	"fmt"
	"sort"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// PrintReportStatus prints report store status information.
func PrintReportStatus(status schema.ReportStatus) {
	fmt.Printf("Report Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Stored Reports: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		fmt.Printf("Last Entry: %s\n", status.LastEntryTime.Format(contract.DateTimeFormat))
		fmt.Printf("Oldest Entry: %s\n", status.OldestEntryTime.Format(contract.DateTimeFormat))
	}
	fmt.Printf("Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintHistoryStatus prints history store status information.
func PrintHistoryStatus(status schema.HistoryStatus) {
	fmt.Printf("History Backend: %s\n", status.Backend)
	fmt.Printf("Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	fmt.Printf("Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		fmt.Printf("Last Run ID: %d\n", status.LastRunID)
		fmt.Printf("Last Run: %s\n", status.LastRunTime.Format(contract.DateTimeFormat))
		fmt.Printf("Oldest Run: %s\n", status.OldestRunTime.Format(contract.DateTimeFormat))
		fmt.Printf("Total Files Analyzed: %d\n", status.TotalFilesAnalyzed)
	}
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	fmt.Println("Table Sizes:")
	for _, table := range tables {
		fmt.Printf("  %s: %d rows\n", table, status.TableSizes[table])
	}
}
